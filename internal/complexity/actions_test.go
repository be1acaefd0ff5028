package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectActions(t *testing.T) {
	t.Run("priority from multiplier", func(t *testing.T) {
		actions := DetectActions("run the tests, then run the deploy")
		require.Len(t, actions, 2)

		assert.Equal(t, ActionPattern{Verb: "run", Occurrences: 2, Category: ActionExecution, Priority: 5}, actions[0])
		assert.Equal(t, ActionPattern{Verb: "deploy", Occurrences: 1, Category: ActionExecution, Priority: 3}, actions[1])
	})

	t.Run("distinct categories", func(t *testing.T) {
		actions := DetectActions("search the web and email me")
		require.Len(t, actions, 2)

		cats := map[ActionCategory]string{}
		for _, a := range actions {
			cats[a.Category] = a.Verb
		}
		assert.Equal(t, "search", cats[ActionRetrieval])
		assert.Equal(t, "email", cats[ActionCommunication])
	})

	t.Run("case insensitive", func(t *testing.T) {
		actions := DetectActions("DELETE the old rows")
		require.Len(t, actions, 1)
		assert.Equal(t, "delete", actions[0].Verb)
		assert.Equal(t, 1, actions[0].Priority)
	})

	t.Run("sorted by priority", func(t *testing.T) {
		actions := DetectActions("remove duplicates, fetch prices, analyze trends and deploy")
		require.NotEmpty(t, actions)
		for i := 1; i < len(actions); i++ {
			assert.GreaterOrEqual(t, actions[i-1].Priority, actions[i].Priority)
		}
		assert.Equal(t, "deploy", actions[0].Verb)
	})

	t.Run("no verbs", func(t *testing.T) {
		assert.Empty(t, DetectActions("what is 2+2?"))
	})
}

func TestRequiresExternal(t *testing.T) {
	assert.True(t, RequiresExternal(ActionRetrieval))
	assert.True(t, RequiresExternal(ActionExecution))
	assert.False(t, RequiresExternal(ActionDeletion))
	assert.False(t, RequiresExternal(ActionCategory("unknown")))
}
