package environ

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type envTest[K comparable] struct {
	name     string
	fallback K
	set      *string
	expected K
}

func strPtr(s string) *string { return &s }

func testEnvGet[K comparable](t *testing.T, tests []envTest[K], fn func(string, K) K) {
	for _, test := range tests {
		if test.set != nil {
			t.Setenv(test.name, *test.set)
		}
		assert.Equal(t, test.expected, fn(test.name, test.fallback))
	}
}

func TestGetString(t *testing.T) {
	tests := []envTest[string]{
		{
			name:     "string1",
			fallback: "default",
			set:      nil,
			expected: "default",
		},
		{
			name:     "string2",
			fallback: "default",
			set:      strPtr("override"),
			expected: "override",
		},
	}
	testEnvGet(t, tests, GetString)
}

func TestGetInt(t *testing.T) {
	tests := []envTest[int]{
		{
			name:     "int1",
			fallback: 42,
			set:      nil,
			expected: 42,
		},
		{
			name:     "int2",
			fallback: 42,
			set:      strPtr("7"),
			expected: 7,
		},
		{
			name:     "int3",
			fallback: 42,
			set:      strPtr("not-a-number"),
			expected: 42,
		},
	}
	testEnvGet(t, tests, GetInt)
}

func TestGetBool(t *testing.T) {
	tests := []envTest[bool]{
		{
			name:     "bool1",
			fallback: true,
			set:      nil,
			expected: true,
		},
		{
			name:     "bool2",
			fallback: true,
			set:      strPtr("false"),
			expected: false,
		},
		{
			name:     "bool3",
			fallback: false,
			set:      strPtr("true"),
			expected: true,
		},
	}
	testEnvGet(t, tests, GetBool)
}

func TestGetDuration(t *testing.T) {
	tests := []envTest[time.Duration]{
		{
			name:     "duration1",
			fallback: time.Minute,
			set:      nil,
			expected: time.Minute,
		},
		{
			name:     "duration2",
			fallback: time.Minute,
			set:      strPtr("250ms"),
			expected: 250 * time.Millisecond,
		},
		{
			name:     "duration3",
			fallback: time.Minute,
			set:      strPtr("bogus"),
			expected: time.Minute,
		},
	}
	testEnvGet(t, tests, GetDuration)
}
