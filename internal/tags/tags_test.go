package tags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleTag(t *testing.T) {
	expr, err := Parse("@smoke")
	require.NoError(t, err)
	assert.True(t, expr.Matches([]string{"@smoke"}))
	assert.False(t, expr.Matches([]string{"@other"}))
}

func TestParse_AndOrNotParens(t *testing.T) {
	expr, err := Parse("@a and (@b or not @c)")
	require.NoError(t, err)

	assert.True(t, expr.Matches([]string{"@a", "@b"}))
	assert.True(t, expr.Matches([]string{"@a"}))
	assert.False(t, expr.Matches([]string{"@a", "@c"}))
	assert.False(t, expr.Matches([]string{"@b"}))
}

func TestParse_EmptyMatchesEverything(t *testing.T) {
	expr, err := Parse("")
	require.NoError(t, err)
	assert.True(t, expr.Matches(nil))
}

func TestParse_InvalidExpression(t *testing.T) {
	_, err := Parse("@a and")
	assert.Error(t, err)

	_, err = Parse("@a @b")
	assert.Error(t, err)
}

func TestResolvePolicy_ExplicitCountAndDelay(t *testing.T) {
	count, after := ResolvePolicy([]string{"@retry(2).after(0s)"}, Defaults{})
	assert.Equal(t, uint32(2), count)
	assert.Equal(t, time.Duration(0), after)
}

func TestResolvePolicy_CountOnlyFallsBackToDefaultDelay(t *testing.T) {
	count, after := ResolvePolicy([]string{"@retry(3)"}, Defaults{After: 5 * time.Second})
	assert.Equal(t, uint32(3), count)
	assert.Equal(t, 5*time.Second, after)
}

func TestResolvePolicy_BareTagUsesDefaults(t *testing.T) {
	count, after := ResolvePolicy([]string{"@retry"}, Defaults{Count: 4, After: time.Second})
	assert.Equal(t, uint32(4), count)
	assert.Equal(t, time.Second, after)
}

func TestResolvePolicy_NoTagUsesFilteredCLIDefaults(t *testing.T) {
	filter, err := Parse("@flaky")
	require.NoError(t, err)

	count, after := ResolvePolicy([]string{"@flaky"}, Defaults{Count: 2, After: time.Second, Filter: filter})
	assert.Equal(t, uint32(2), count)
	assert.Equal(t, time.Second, after)

	count, after = ResolvePolicy([]string{"@stable"}, Defaults{Count: 2, After: time.Second, Filter: filter})
	assert.Equal(t, uint32(0), count)
	assert.Equal(t, time.Duration(0), after)
}
