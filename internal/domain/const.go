package domain

const (
	RequesterTypeCtxKey  = "cc-requesterType"
	RequesterIdCtxKey    = "cc-requesterId"
	RequesterKeyIdCtxKey = "cc-requesterKeyId"
)

const (
	AuthSchemeBearer = "Bearer"
	AuthSchemeToken  = "Token"
)

const (
	Unknown = iota
	SignedUser
	APIKeyUser
)

func RequesterTypeString(t int) string {
	switch t {
	case SignedUser:
		return "SignedUser"
	case APIKeyUser:
		return "APIKeyUser"
	case Unknown:
		return "Unknown"
	default:
		return "Error"
	}
}
