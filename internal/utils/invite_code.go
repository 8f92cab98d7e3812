package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const inviteCodeGroups = 3

// RandomHex returns 2*n hex characters from crypto/rand
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateInviteCode generates a team invite code in the format XXXX-XXXX-XXXX
func GenerateInviteCode() (string, error) {
	raw, err := RandomHex(inviteCodeGroups * 2)
	if err != nil {
		return "", err
	}

	groups := make([]string, 0, inviteCodeGroups)
	for i := 0; i < len(raw); i += 4 {
		groups = append(groups, strings.ToUpper(raw[i:i+4]))
	}
	return strings.Join(groups, "-"), nil
}
