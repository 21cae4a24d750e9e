package redis

import "fmt"

const ns = "tixcore:v1"

func KeyEventSummary(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:summary", ns, eventID)
}

func KeyEventSections(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:sections", ns, eventID)
}

func KeyIdemCreate(resource, idemKey string) string {
	return fmt.Sprintf("%s:idem:%s:%s", ns, resource, idemKey)
}

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}

// KeyRateLimit hash-tags the client key so a window and its sequence land in
// one cluster slot.
func KeyRateLimit(scope, client string) string {
	return fmt.Sprintf("%s:rl:%s:{%s}", ns, scope, client)
}
