package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron(t *testing.T) {
	c, err := parseCron("0 3 1 * *")
	require.NoError(t, err)
	assert.True(t, c.minute.matches(0))
	assert.False(t, c.minute.matches(30))
	assert.True(t, c.hour.matches(3))
	assert.True(t, c.dayOfMonth.matches(1))
	assert.True(t, c.month.matches(7), "wildcard month matches anything")
	assert.True(t, c.dayOfWeek.matches(0))
}

func TestParseCronCommaList(t *testing.T) {
	c, err := parseCron("0,30 * * * 1,5")
	require.NoError(t, err)
	assert.True(t, c.minute.matches(0))
	assert.True(t, c.minute.matches(30))
	assert.False(t, c.minute.matches(15))
	assert.True(t, c.dayOfWeek.matches(1))
	assert.True(t, c.dayOfWeek.matches(5))
	assert.False(t, c.dayOfWeek.matches(3))
}

func TestParseCronErrors(t *testing.T) {
	_, err := parseCron("0 3 1 *")
	assert.Error(t, err, "too few fields")

	_, err = parseCron("0 3 1 * * *")
	assert.Error(t, err, "too many fields")

	_, err = parseCron("0 x 1 * *")
	assert.Error(t, err, "non-numeric field")
}

func TestNextCronTimeMonthlyExport(t *testing.T) {
	// 03:00 on the 1st of every month.
	after := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 1 * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 3, 0, 0, 0, time.UTC), next)
}

func TestNextCronTimeSkipsCurrentMinute(t *testing.T) {
	// 'after' already matching must roll to the next occurrence, not fire
	// immediately again.
	after := time.Date(2024, 4, 1, 3, 0, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 1 * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC), next)
}

func TestNextCronTimeEveryMinute(t *testing.T) {
	after := time.Date(2024, 3, 15, 12, 30, 45, 0, time.UTC)
	next, err := nextCronTime("* * * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 31, 0, 0, time.UTC), next)
}

func TestNextCronTimeBadExpression(t *testing.T) {
	_, err := nextCronTime("not a cron", time.Now())
	assert.Error(t, err)
}
