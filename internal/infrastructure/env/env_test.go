package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDefault(t *testing.T) {
	svc := &EnvService{}

	t.Setenv("ENV_TEST_SET", "configured")
	assert.Equal(t, "configured", svc.GetDefault("ENV_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", svc.GetDefault("ENV_TEST_UNSET", "fallback"))
}

func TestGetBool(t *testing.T) {
	svc := &EnvService{}

	t.Setenv("ENV_TEST_BOOL", "true")
	assert.True(t, svc.GetBool("ENV_TEST_BOOL", false))

	t.Setenv("ENV_TEST_BOOL", "not-a-bool")
	assert.True(t, svc.GetBool("ENV_TEST_BOOL", true), "unparsable values fall back to the default")

	assert.True(t, svc.GetBool("ENV_TEST_BOOL_UNSET", true))
	assert.False(t, svc.GetBool("ENV_TEST_BOOL_UNSET", false))
}

func TestGetInt(t *testing.T) {
	svc := &EnvService{}

	t.Setenv("ENV_TEST_INT", "42")
	assert.Equal(t, 42, svc.GetInt("ENV_TEST_INT", 7))

	t.Setenv("ENV_TEST_INT", "forty-two")
	assert.Equal(t, 7, svc.GetInt("ENV_TEST_INT", 7))

	assert.Equal(t, 7, svc.GetInt("ENV_TEST_INT_UNSET", 7))
}

func TestGetDuration(t *testing.T) {
	svc := &EnvService{}

	t.Setenv("ENV_TEST_DUR", "45s")
	assert.Equal(t, 45*time.Second, svc.GetDuration("ENV_TEST_DUR", time.Minute))

	t.Setenv("ENV_TEST_DUR", "later")
	assert.Equal(t, time.Minute, svc.GetDuration("ENV_TEST_DUR", time.Minute))

	assert.Equal(t, time.Minute, svc.GetDuration("ENV_TEST_DUR_UNSET", time.Minute))
}
