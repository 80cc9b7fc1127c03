package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProvider(t *testing.T) {
	for _, p := range []string{"sqlite", " Postgres ", "MONGODB", "file"} {
		_, err := validateProvider(p)
		assert.NoError(t, err, p)
	}

	got, _ := validateProvider(" Postgres ")
	assert.Equal(t, "postgres", got)

	_, err := validateProvider("mysql")
	assert.Error(t, err)
}

func TestValidateCronExpression(t *testing.T) {
	got, err := validateCronExpression("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = validateCronExpression(" */15 * * * * ")
	require.NoError(t, err)
	assert.Equal(t, "*/15 * * * *", got)

	_, err = validateCronExpression("@every 1h")
	assert.NoError(t, err)

	_, err = validateCronExpression("every monday")
	assert.Error(t, err)
}

func TestValidateNumber(t *testing.T) {
	n, err := validateNumber("", 1, 52)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = validateNumber("8", 1, 52)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, err = validateNumber("0", 1, 52)
	assert.Error(t, err)
	_, err = validateNumber("four", 1, 52)
	assert.Error(t, err)
}

func TestParseCategories(t *testing.T) {
	assert.Equal(t, []string{"vertical", "pricing"}, parseCategories(" vertical, ,pricing "))
	assert.Nil(t, parseCategories(""))
}

func TestMaskURI(t *testing.T) {
	assert.Equal(t, "postgres://app:***@db:5432/heatmap", maskURI("postgres://app:secret@db:5432/heatmap"))
	assert.Equal(t, "mongodb://localhost:27017", maskURI("mongodb://localhost:27017"))
	assert.Equal(t, "mongodb://app@host", maskURI("mongodb://app@host"))
	assert.Equal(t, "~/.heatmap/heatmap.db", maskURI("~/.heatmap/heatmap.db"))
}
