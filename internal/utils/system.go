package utils

import (
	"os/user"
)

// GetUsername returns the current system username.
func GetUsername() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", err
	}
	return current.Username, nil
}
