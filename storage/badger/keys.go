package badger

import "fmt"

// Key prefixes for different data types
const (
	userStatePrefix = "usrsta"
)

// makeUserStateKey generates a key for a user state by user id.
func makeUserStateKey(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", userStatePrefix, userID))
}
