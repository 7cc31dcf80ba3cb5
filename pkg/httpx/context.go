package httpx

import "context"

type ctxKey string

const (
	CtxKeySubjectID ctxKey = "subject_id"
	CtxKeyRole      ctxKey = "role"
)

// Identity is what the authorization gate attaches to the request context
// on success.
type Identity struct {
	SubjectID string
	Role      string
}

func contextWithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubjectID, id.SubjectID)
	ctx = context.WithValue(ctx, CtxKeyRole, id.Role)
	return ctx
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	subject, ok := ctx.Value(CtxKeySubjectID).(string)
	if !ok || subject == "" {
		return Identity{}, false
	}
	role, _ := ctx.Value(CtxKeyRole).(string)
	return Identity{SubjectID: subject, Role: role}, true
}

func roleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(CtxKeyRole).(string)
	return role
}
