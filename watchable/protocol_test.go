package watchable_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/watchable-go/watchable"
	. "github.com/AntonStoeckl/watchable-go/testutil/helper" //nolint:revive
)

func Test_Set_SameValue_IsNoOp(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	address := root.Get("address")
	spy := NewListenerSpy()
	root.AddListener("name", spy.Listener())
	root.AddListener("address", spy.Listener())
	spy.Reset()

	// act
	scalarErr := root.Set("name", "Ada")
	nodeErr := root.Set("address", address)

	// assert
	require.NoError(t, scalarErr)
	require.NoError(t, nodeErr)
	assert.Equal(t, 0, spy.GetCallCount())
	assert.Same(t, address, root.Get("address"))
}

func Test_Set_NewScalar_NotifiesListenersInRegistrationOrder(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	var order []string
	var calls []ListenerCall

	root.AddListener("name", func(newValue, oldValue any, key watchable.Key) {
		order = append(order, "first")
		calls = append(calls, ListenerCall{NewValue: newValue, OldValue: oldValue, Key: key})
	})
	root.AddListener("name", func(any, any, watchable.Key) {
		order = append(order, "second")
	})
	order = nil
	calls = nil

	// act
	err := root.Set("name", "Grace")

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []ListenerCall{{NewValue: "Grace", OldValue: "Ada", Key: "name"}}, calls)
	assert.Equal(t, "Grace", root.Get("name"))
}

func Test_Set_OnlyNotifiesListenersOfThatKey(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	spy := NewListenerSpy()
	root.AddListener("score", spy.Listener())
	spy.Reset()

	// act
	err := root.Set("name", "Grace")

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, spy.GetCallCount())
}

func Test_Set_DeepChange_BubblesToEveryAncestor(t *testing.T) {
	// arrange
	root, err := watchable.Watch(map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1},
		},
	})
	require.NoError(t, err)

	a := ChildNode(t, root, "a")
	b := ChildNode(t, a, "b")

	cSpy := NewListenerSpy()
	bSpy := NewListenerSpy()
	aSpy := NewListenerSpy()
	b.AddListener("c", cSpy.Listener())
	a.AddListener("b", bSpy.Listener())
	root.AddListener("a", aSpy.Listener())
	cSpy.Reset()
	bSpy.Reset()
	aSpy.Reset()

	// act
	err = b.Set("c", 2)

	// assert
	require.NoError(t, err)
	assert.Equal(t, []ListenerCall{{NewValue: 2, OldValue: 1, Key: "c"}}, cSpy.GetCalls())

	require.Equal(t, 1, bSpy.GetCallCount())
	assert.Same(t, b, bSpy.GetLastCall().NewValue)
	assert.Nil(t, bSpy.GetLastCall().OldValue, "bubbled changes carry no old value")
	assert.Equal(t, "b", bSpy.GetLastCall().Key)

	require.Equal(t, 1, aSpy.GetCallCount())
	assert.Same(t, a, aSpy.GetLastCall().NewValue)
	assert.Nil(t, aSpy.GetLastCall().OldValue)
	assert.Equal(t, "a", aSpy.GetLastCall().Key)
}

func Test_Set_ListChild_BubblesWithIndexKey(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	tags := ChildNode(t, root, "tags")

	indexSpy := NewListenerSpy()
	tagsSpy := NewListenerSpy()
	tags.AddListener(0, indexSpy.Listener())
	root.AddListener("tags", tagsSpy.Listener())
	indexSpy.Reset()
	tagsSpy.Reset()

	// act
	err := tags.Set(0, "physics")

	// assert
	require.NoError(t, err)
	assert.Equal(t, []ListenerCall{{NewValue: "physics", OldValue: "math", Key: 0}}, indexSpy.GetCalls())
	require.Equal(t, 1, tagsSpy.GetCallCount())
	assert.Same(t, tags, tagsSpy.GetLastCall().NewValue)
}

func Test_Set_SharedNode_NotifiesBothParents(t *testing.T) {
	// arrange
	root, err := watchable.Watch(map[string]any{
		"left":  map[string]any{},
		"right": map[string]any{},
	})
	require.NoError(t, err)

	shared, err := watchable.Watch(map[string]any{"v": 1})
	require.NoError(t, err)

	left := ChildNode(t, root, "left")
	right := ChildNode(t, root, "right")
	require.NoError(t, left.Set("shared", shared))
	require.NoError(t, right.Set("shared", shared))

	leftSpy := NewListenerSpy()
	rightSpy := NewListenerSpy()
	left.AddListener("shared", leftSpy.Listener())
	right.AddListener("shared", rightSpy.Listener())
	leftSpy.Reset()
	rightSpy.Reset()

	// act
	err = shared.Set("v", 2)

	// assert
	require.NoError(t, err)
	assert.Len(t, shared.Handler().Parents(), 2)
	assert.Equal(t, 1, leftSpy.GetCallCount())
	assert.Equal(t, 1, rightSpy.GetCallCount())
	assert.Same(t, shared, leftSpy.GetLastCall().NewValue)
	assert.Same(t, shared, rightSpy.GetLastCall().NewValue)
}

func Test_Set_SameNodeUnderTwoKeysOfOneParent_NotifiesBothKeys(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	address := ChildNode(t, root, "address")
	require.NoError(t, root.Set("billing", address))

	spy := NewListenerSpy()
	root.AddListener("address", spy.Listener())
	root.AddListener("billing", spy.Listener())
	spy.Reset()

	// act
	err := address.Set("zip", "NW2")

	// assert
	require.NoError(t, err)
	assert.Len(t, address.Handler().Parents(), 2)
	require.Equal(t, 2, spy.GetCallCount())
	assert.Equal(t, "address", spy.GetCalls()[0].Key)
	assert.Equal(t, "billing", spy.GetCalls()[1].Key)
}

func Test_RemoveListener_StopsDelivery(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	spy := NewListenerSpy()
	id := root.AddListener("name", spy.Listener())
	spy.Reset()

	// act
	root.RemoveListener("name", id)
	err := root.Set("name", "Grace")

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, spy.GetCallCount())
	assert.Empty(t, root.Listeners("name"))
}

func Test_ListenerAddedDuringDelivery_OnlyGetsItsInitialCall(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	late := NewListenerSpy()
	added := false

	root.AddListener("name", func(_, oldValue any, _ watchable.Key) {
		if added || oldValue == nil {
			return
		}

		added = true
		root.AddListener("name", late.Listener())
	})

	// act
	err := root.Set("name", "Grace")

	// assert
	require.NoError(t, err)
	require.Equal(t, 1, late.GetCallCount())
	assert.Equal(t, ListenerCall{NewValue: "Grace", OldValue: nil, Key: "name"}, late.GetLastCall())
	assert.Len(t, root.Listeners("name"), 2)
}

func Test_ListenerRemovedDuringDelivery_IsStillCalledInThatPass(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	second := NewListenerSpy()
	var secondID watchable.ListenerID

	root.AddListener("name", func(_, oldValue any, _ watchable.Key) {
		if oldValue != nil {
			root.RemoveListener("name", secondID)
		}
	})
	secondID = root.AddListener("name", second.Listener())
	second.Reset()

	// act
	firstErr := root.Set("name", "Grace")
	secondErr := root.Set("name", "Ada")

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.Equal(t, 1, second.GetCallCount())
	assert.Equal(t, "Grace", second.GetLastCall().NewValue)
}

func Test_Set_ReplacingNode_KeepsSubscriptionsOnItsKeys(t *testing.T) {
	// arrange
	root, err := watchable.Watch(map[string]any{"list": map[string]any{"a": 1}})
	require.NoError(t, err)

	oldList := ChildNode(t, root, "list")
	spy := NewListenerSpy()
	id := oldList.AddListener("a", spy.Listener())
	spy.Reset()

	// act
	err = root.Set("list", map[string]any{"a": 5})
	newList := ChildNode(t, root, "list")
	changeErr := newList.Set("a", 6)

	// assert
	require.NoError(t, err)
	require.NoError(t, changeErr)
	assert.NotSame(t, oldList, newList)
	assert.Equal(t, []ListenerCall{{NewValue: 6, OldValue: 5, Key: "a"}}, spy.GetCalls())

	newList.RemoveListener("a", id)
	assert.Empty(t, newList.Listeners("a"), "inherited registrations keep their ids")
	assert.Len(t, oldList.Listeners("a"), 1, "the replaced node keeps its own copy")
}

func Test_Set_ReplacingNode_DetachesTheOldOne(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	oldAddress := ChildNode(t, root, "address")
	spy := NewListenerSpy()
	root.AddListener("address", spy.Listener())

	// act
	err := root.Set("address", map[string]any{"city": "Paris"})
	spy.Reset()
	staleErr := oldAddress.Set("city", "Berlin")

	// assert
	require.NoError(t, err)
	require.NoError(t, staleErr)
	assert.Empty(t, oldAddress.Handler().Parents())
	assert.Equal(t, 0, spy.GetCallCount())
	assert.Equal(t, "Paris", ChildNode(t, root, "address").Get("city"))
}

func Test_Set_ScalarOverNode_UnlinksIt(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	address := ChildNode(t, root, "address")

	// act
	err := root.Set("address", "unknown")

	// assert
	require.NoError(t, err)
	assert.Empty(t, address.Handler().Parents())
	assert.Equal(t, "unknown", root.Get("address"))
}

func Test_Set_RawOfGovernedNode_GetsItsOwnHandler(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	address := ChildNode(t, root, "address")
	addressSpy := NewListenerSpy()
	billingSpy := NewListenerSpy()

	// act
	err := root.Set("billing", address.Raw())
	root.AddListener("address", addressSpy.Listener())
	root.AddListener("billing", billingSpy.Listener())
	addressSpy.Reset()
	billingSpy.Reset()
	changeErr := address.Set("city", "Paris")

	// assert
	require.NoError(t, err)
	require.NoError(t, changeErr)

	billing := ChildNode(t, root, "billing")
	assert.NotSame(t, address, billing)
	assert.Equal(t, "Paris", billing.Get("city"), "both nodes govern the same storage")
	assert.Equal(t, 1, addressSpy.GetCallCount())
	assert.Equal(t, 0, billingSpy.GetCallCount(), "only the node that was written to bubbles")
}

func Test_Set_NestedComposite_AttachesTheWholeSubtree(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)

	// act
	err := root.Set("history", []any{map[string]any{"year": 1843}, "note"})

	// assert
	require.NoError(t, err)
	history := ChildNode(t, root, "history")
	entry := ChildNode(t, history, 0)
	assert.Equal(t, 1843, entry.Get("year"))
	assert.Equal(t, []watchable.ParentEdge{{ParentID: root.Handler().ID(), Key: "history"}}, history.Handler().Parents())
	assert.Equal(t, []watchable.ParentEdge{{ParentID: history.Handler().ID(), Key: 0}}, entry.Handler().Parents())
}

func Test_Delete_NotifiesWithNilNewValue(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	spy := NewListenerSpy()
	root.AddListener("name", spy.Listener())
	spy.Reset()

	// act
	deleted := root.Delete("name")

	// assert
	assert.True(t, deleted)
	assert.Equal(t, []ListenerCall{{NewValue: nil, OldValue: "Ada", Key: "name"}}, spy.GetCalls())
	_, found := root.Lookup("name")
	assert.False(t, found)
}

func Test_Delete_MissingKey_IsNoOp(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	spy := NewListenerSpy()
	root.AddListener("nickname", spy.Listener())
	spy.Reset()

	// act
	deleted := root.Delete("nickname")
	wrongKeyType := root.Delete(3)

	// assert
	assert.False(t, deleted)
	assert.False(t, wrongKeyType)
	assert.Equal(t, 0, spy.GetCallCount())
}

func Test_Delete_Node_UnlinksIt(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	address := ChildNode(t, root, "address")
	spy := NewListenerSpy()
	root.AddListener("address", spy.Listener())
	spy.Reset()

	// act
	deleted := root.Delete("address")
	err := address.Set("city", "Paris")

	// assert
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, address.Handler().Parents())
	require.Equal(t, 1, spy.GetCallCount(), "only the delete itself is delivered")
	assert.Same(t, address, spy.GetLastCall().OldValue)
}

func Test_Delete_Bubbles(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	address := ChildNode(t, root, "address")
	spy := NewListenerSpy()
	root.AddListener("address", spy.Listener())
	spy.Reset()

	// act
	deleted := address.Delete("zip")

	// assert
	assert.True(t, deleted)
	require.Equal(t, 1, spy.GetCallCount())
	assert.Equal(t, ListenerCall{NewValue: address, OldValue: nil, Key: "address"}, spy.GetLastCall())
}

func Test_Set_FromInsideListener_RecursesSynchronously(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	root.AddListener("score", func(newValue, oldValue any, _ watchable.Key) {
		if oldValue == nil {
			return
		}

		require.NoError(t, root.Set("name", "Ada Lovelace"))
	})
	nameSpy := NewListenerSpy()
	root.AddListener("name", nameSpy.Listener())
	nameSpy.Reset()

	// act
	err := root.Set("score", 2)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", root.Get("name"))
	assert.Equal(t, []ListenerCall{{NewValue: "Ada Lovelace", OldValue: "Ada", Key: "name"}}, nameSpy.GetCalls())
}

func Test_Set_PanickingListener_AbortsRemainingDeliveries(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	root.AddListener("name", func(_, oldValue any, _ watchable.Key) {
		if oldValue != nil {
			panic("listener failed")
		}
	})
	second := NewListenerSpy()
	root.AddListener("name", second.Listener())
	second.Reset()

	// act + assert
	assert.PanicsWithValue(t, "listener failed", func() {
		_ = root.Set("name", "Grace")
	})
	assert.Equal(t, 0, second.GetCallCount())
	assert.Equal(t, "Grace", root.Get("name"), "the write is committed before delivery")
}

func Test_Set_WithCustomEquality_SkipsEqualWrites(t *testing.T) {
	// arrange
	w := GivenWatcher(t, watchable.WithEquality(func(oldValue, newValue any) bool {
		return watchable.Identical(oldValue, newValue) || fmt.Sprint(oldValue) == fmt.Sprint(newValue)
	}))
	root := GivenWatchedUserProfile(t, w)
	spy := NewListenerSpy()
	root.AddListener("score", spy.Listener())
	spy.Reset()

	// act
	sameErr := root.Set("score", "1")
	changedErr := root.Set("score", 2)

	// assert
	require.NoError(t, sameErr)
	require.NoError(t, changedErr)
	assert.Equal(t, []ListenerCall{{NewValue: 2, OldValue: 1, Key: "score"}}, spy.GetCalls())
}
