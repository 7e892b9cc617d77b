package notification

import "strings"

const (
	PriorityPayment  = 1
	PriorityIdentity = 2
	PriorityDefault  = 3
)

var (
	paymentKeywords  = []string{"payment", "invoice", "billing", "subscription", "refund", "charge"}
	identityKeywords = []string{"password", "verification", "verify", "login", "security", "otp"}
)

// PriorityFor выводит приоритет из тега типа уведомления по вхождению ключевых слов.
func PriorityFor(notificationType string) int {
	tag := strings.ToLower(notificationType)
	if containsAny(tag, paymentKeywords) {
		return PriorityPayment
	}
	if containsAny(tag, identityKeywords) {
		return PriorityIdentity
	}
	return PriorityDefault
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
