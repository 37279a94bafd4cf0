package logger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactorMasksSecretsAndHashesIDs(t *testing.T) {
	r := &redactor{salt: "pepper"}
	id := uuid.New()

	out := r.sanitize([]interface{}{
		"password", "hunter22",
		"Authorization", "Bearer abc",
		"correct_answer", "goroutine",
		"user_id", id,
		"assessment_id", "a-1",
		"payload", map[string]interface{}{"email": "x@example.com", "score": 0.9},
		"dangling",
	})
	require.Len(t, out, 13)
	assert.Equal(t, redacted, out[1])
	assert.Equal(t, redacted, out[3])
	assert.Equal(t, redacted, out[5])
	assert.Equal(t, r.hash(id.String()), out[7])
	assert.Contains(t, out[7], "hash:")
	assert.Equal(t, "a-1", out[9])
	assert.Equal(t, map[string]interface{}{"email": redacted, "score": 0.9}, out[11])
	assert.Equal(t, "dangling", out[12])

	jwtLike := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	assert.Equal(t, redacted, r.value("note", jwtLike))
}

func TestHashDependsOnSalt(t *testing.T) {
	a := (&redactor{salt: "a"}).hash("u1")
	b := (&redactor{salt: "b"}).hash("u1")
	assert.NotEqual(t, a, b)
	assert.Empty(t, (&redactor{}).hash(nil))
}

func TestNilRedactorPassesThrough(t *testing.T) {
	var r *redactor
	kv := []interface{}{"password", "hunter22"}
	assert.Equal(t, kv, r.sanitize(kv))
}

func TestNewWithOptionsRejectsBadLevel(t *testing.T) {
	_, err := NewWithOptions(Options{Mode: "test", Level: "loud"})
	assert.Error(t, err)

	log, err := NewWithOptions(Options{Mode: "production", Level: "warn", Redact: true})
	require.NoError(t, err)
	log.With("user_id", "u1").Info("ignored below warn")
	assert.NotNil(t, log.red)
}
