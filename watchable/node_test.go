package watchable_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/watchable-go/watchable"
	. "github.com/AntonStoeckl/watchable-go/testutil/helper" //nolint:revive
)

func Test_Node_Get_ReturnsWrappedChildrenAndScalars(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)

	// act
	address := root.Get("address")
	tags := root.Get("tags")
	name := root.Get("name")
	missing, found := root.Lookup("missing")

	// assert
	assert.IsType(t, &watchable.Node{}, address)
	assert.IsType(t, &watchable.Node{}, tags)
	assert.Equal(t, "Ada", name)
	assert.Nil(t, missing)
	assert.False(t, found)
	assert.Nil(t, root.Get("missing"))
	assert.Nil(t, root.Get(42), "reads with unusable keys return nil")
}

func Test_Node_Kind_Len_Keys(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	tags := ChildNode(t, root, "tags")

	// assert
	assert.Equal(t, watchable.KindMap, root.Kind())
	assert.Equal(t, watchable.KindList, tags.Kind())
	assert.Equal(t, "map", root.Kind().String())
	assert.Equal(t, "list", tags.Kind().String())
	assert.Equal(t, 4, root.Len())
	assert.Equal(t, 2, tags.Len())
	assert.Equal(t, []watchable.Key{"address", "name", "score", "tags"}, root.Keys())
	assert.Equal(t, []watchable.Key{0, 1}, tags.Keys())
}

func Test_Node_Attach_RewritesRawSlotsInPlace(t *testing.T) {
	// arrange
	raw := GivenUserProfile()

	// act
	root, err := watchable.Watch(raw)

	// assert
	require.NoError(t, err)
	assert.IsType(t, &watchable.Node{}, raw["address"])
	assert.IsType(t, &watchable.Node{}, raw["tags"])
	assert.Same(t, raw["address"], root.Get("address"))
	assert.Equal(t, "Ada", raw["name"])
}

func Test_Node_Sentinels(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	address := ChildNode(t, root, "address")

	// assert
	assert.Same(t, root.Handler(), watchable.HandlerFor(root))
	assert.Nil(t, watchable.HandlerFor("scalar"))
	assert.Nil(t, watchable.HandlerFor(map[string]any{}))
	assert.Equal(t, root.Raw(), watchable.RawValue(root))
	assert.Equal(t, "scalar", watchable.RawValue("scalar"))
	assert.True(t, watchable.IsWrapped(address))
	assert.False(t, watchable.IsWrapped(address.Raw()))

	raw, ok := address.Raw().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "London", raw["city"])
}

func Test_Node_AddListener_FiresOnceWithCurrentValue(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	spy := NewListenerSpy()

	// act
	id := root.AddListener("name", spy.Listener())

	// assert
	assert.NotEqual(t, uuid.Nil, id)
	require.Equal(t, 1, spy.GetCallCount())
	assert.Equal(t, ListenerCall{NewValue: "Ada", OldValue: nil, Key: "name"}, spy.GetLastCall())
}

func Test_Node_AddListener_OnMissingKey_FiresWithNil(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	spy := NewListenerSpy()

	// act
	root.AddListener("nickname", spy.Listener())

	// assert
	require.Equal(t, 1, spy.GetCallCount())
	assert.Equal(t, ListenerCall{Key: "nickname"}, spy.GetLastCall())
}

func Test_Node_AddListener_IgnoresNilListener(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)

	// act
	id := root.AddListener("name", nil)

	// assert
	assert.Equal(t, uuid.Nil, id)
	assert.Empty(t, root.Listeners("name"))
}

func Test_Node_Listeners_InRegistrationOrder(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	var order []string

	root.AddListener("name", func(any, any, watchable.Key) { order = append(order, "first") })
	root.AddListener("name", func(any, any, watchable.Key) { order = append(order, "second") })
	order = nil

	// act
	listeners := root.Listeners("name")
	for _, l := range listeners {
		l(nil, nil, "name")
	}

	// assert
	assert.Len(t, listeners, 2)
	assert.Equal(t, []string{"first", "second"}, order)
}

func Test_Node_RemoveListener(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	first := NewListenerSpy()
	second := NewListenerSpy()

	firstID := root.AddListener("name", first.Listener())
	root.AddListener("name", second.Listener())
	first.Reset()
	second.Reset()

	// act
	root.RemoveListener("name", firstID)
	root.RemoveListener("name", uuid.New())
	root.RemoveListener("unknown", firstID)
	err := root.Set("name", "Grace")

	// assert
	require.NoError(t, err)
	assert.Len(t, root.Listeners("name"), 1)
	assert.Equal(t, 0, first.GetCallCount())
	assert.Equal(t, 1, second.GetCallCount())
}

func Test_Node_Set_RejectsUnusableKeys(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	tags := ChildNode(t, root, "tags")

	// act
	mapErr := root.Set(1, "x")
	listErr := tags.Set("first", "x")
	negativeErr := tags.Set(-1, "x")

	// assert
	assert.ErrorIs(t, mapErr, watchable.ErrInvalidKey)
	assert.ErrorIs(t, listErr, watchable.ErrInvalidKey)
	assert.ErrorIs(t, negativeErr, watchable.ErrIndexOutOfRange)
	assert.Equal(t, 2, tags.Len())
}

func Test_Node_Set_PastTheEnd_GrowsList(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	tags := ChildNode(t, root, "tags")

	// act
	err := tags.Set(3, "optics")
	appendErr := tags.Append("looms")

	// assert
	require.NoError(t, err)
	require.NoError(t, appendErr)
	assert.Equal(t, 5, tags.Len())
	assert.Nil(t, tags.Get(2))
	assert.Equal(t, "optics", tags.Get(3))
	assert.Equal(t, "looms", tags.Get(4))
	assert.Equal(t, []any{"math", "engines", nil, "optics", "looms"}, tags.Raw())
}

func Test_Node_Delete_FromList_LeavesHole(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)
	tags := ChildNode(t, root, "tags")

	// act
	deleted := tags.Delete(0)
	outOfRange := tags.Delete(9)

	// assert
	assert.True(t, deleted)
	assert.False(t, outOfRange)
	assert.Equal(t, 2, tags.Len())
	assert.Nil(t, tags.Get(0))
	assert.Equal(t, "engines", tags.Get(1))
}

func Test_Node_Plain_And_MarshalJSON(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)

	// act
	plain := root.Plain()
	data, err := json.Marshal(root)

	// assert
	require.NoError(t, err)
	assert.Equal(t, GivenUserProfile(), plain)
	assert.JSONEq(t,
		`{"name":"Ada","address":{"city":"London","zip":"NW1"},"tags":["math","engines"],"score":1}`,
		string(data),
	)
}

func Test_Node_MarshalYAML(t *testing.T) {
	// arrange
	root := GivenWatchedUserProfile(t, nil)

	// act
	data, err := yaml.Marshal(map[string]any{"profile": root})

	// assert
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"profile": GivenUserProfile()}, decoded)
	assert.NotContains(t, string(data), "handler")
}
