package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// BlockNodeID derives the id assigned to a node that arrived without one.
// The path holds one step per depth from the page root, a bare index at the
// root and "slot:index" below it, so the id stays stable as long as the node
// keeps its position.
func BlockNodeID(pageID, blockType string, path []string) string {
	var b strings.Builder
	b.WriteString("go-delivery:block_node:")
	b.WriteString(strings.TrimSpace(pageID))
	b.WriteByte(':')
	b.WriteString(strings.ToLower(strings.TrimSpace(blockType)))
	for _, step := range path {
		b.WriteByte('/')
		b.WriteString(step)
	}
	return UUID(b.String()).String()
}

// RenderPlanID derives a correlation id for a (locale, slug) assembly.
func RenderPlanID(locale, slug string) string {
	return UUID("go-delivery:render_plan:" + strings.ToLower(strings.TrimSpace(locale)) + ":" + strings.TrimSpace(slug)).String()
}
