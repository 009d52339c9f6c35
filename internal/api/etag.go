package api

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// ETag is the quoted base64 SHA-256 of the task's JSON form.
func ETag(t *Task) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return `"` + base64.StdEncoding.EncodeToString(sum[:]) + `"`, nil
}
