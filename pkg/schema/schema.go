// Package schema declares, per entity kind, the key-path templates the kind
// is addressable by, its id-generation strategy, and its expiry policy. It
// has no runtime behavior of its own: the descriptors are data consumed by
// the entities layer, which maps them onto concrete store operations.
package schema

import (
	"fmt"
	"strings"
	"time"
)

// IDStrategy selects how an entity's id is allocated.
type IDStrategy int

const (
	// IDNone: the entity has no id of its own; its key fields identify it.
	IDNone IDStrategy = iota
	// IDRandom63: a random 63-bit id, globally unique and unordered.
	IDRandom63
	// IDSequence: a monotonic sequence scoped to the parent entity. Used
	// where uniqueness and total order are both required within a parent.
	IDSequence
)

// Descriptor declares one entity kind. An entity with several key paths is
// addressable by any of them; a write must populate all of them atomically.
// The first template is the primary path.
type Descriptor struct {
	Kind     string
	KeyPaths []string
	ID       IDStrategy
	// TTL, when non-zero, is a store-enforced deletion deadline measured
	// from creation. Field mutation cannot extend it.
	TTL time.Duration
}

// Primary returns the entity's primary key-path template.
func (d Descriptor) Primary() string { return d.KeyPaths[0] }

// Entity kinds.
const (
	KindUser       = "user"
	KindChat       = "chat"
	KindMessage    = "message"
	KindDocument   = "document"
	KindSuggestion = "suggestion"
	KindStream     = "stream"
	KindVote       = "vote"
)

// StreamTTL is the fixed lifetime of a Stream item.
const StreamTTL = 24 * time.Hour

var registry = map[string]Descriptor{
	KindUser: {
		Kind: KindUser,
		KeyPaths: []string{
			"user:{id}",
			"email:{email}",
		},
		ID: IDRandom63,
	},
	KindChat: {
		Kind: KindChat,
		KeyPaths: []string{
			"chat:{id}",
			"user:{user_id}:chat:{id}",
			"user:{user_id}:vis:{visibility}:chat:{id}",
		},
		ID: IDRandom63,
	},
	KindMessage: {
		Kind: KindMessage,
		KeyPaths: []string{
			"chat:{chat_id}:msg:{id}",
		},
		ID: IDSequence,
	},
	KindDocument: {
		Kind: KindDocument,
		KeyPaths: []string{
			"doc:{id}:ver:{created_ts}",
			"user:{user_id}:doc:{id}:ver:{created_ts}",
		},
		ID: IDRandom63,
	},
	KindSuggestion: {
		Kind: KindSuggestion,
		KeyPaths: []string{
			"doc:{document_id}:ver:{document_version}:sugg:{id}",
			"user:{user_id}:sugg:{id}",
		},
		ID: IDRandom63,
	},
	KindStream: {
		Kind: KindStream,
		KeyPaths: []string{
			"chat:{chat_id}:stream:{id}",
			"stream:{id}",
		},
		ID:  IDRandom63,
		TTL: StreamTTL,
	},
	KindVote: {
		Kind: KindVote,
		KeyPaths: []string{
			"chat:{chat_id}:vote:{message_id}",
			"msg:{message_id}:vote:{chat_id}",
		},
		ID: IDNone,
	},
}

// Lookup returns the descriptor for a kind.
func Lookup(kind string) (Descriptor, bool) {
	d, ok := registry[kind]
	return d, ok
}

// MustLookup returns the descriptor for a kind or panics. Kinds are a
// closed, compile-time set; an unknown kind is a programming error.
func MustLookup(kind string) Descriptor {
	d, ok := registry[kind]
	if !ok {
		panic(fmt.Sprintf("schema: unknown entity kind %q", kind))
	}
	return d
}

// Kinds returns all registered kinds.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}

// Render substitutes {field} placeholders in a key-path template with the
// provided values. Every placeholder must be bound; numeric fields should
// be pre-encoded fixed-width (utils.FormatID) so lexicographic key order
// matches numeric order.
func Render(template string, fields map[string]string) (string, error) {
	var b strings.Builder
	rest := template
	for {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		j := strings.IndexByte(rest[i:], '}')
		if j < 0 {
			return "", fmt.Errorf("schema: unterminated placeholder in %q", template)
		}
		name := rest[i+1 : i+j]
		v, ok := fields[name]
		if !ok || v == "" {
			return "", fmt.Errorf("schema: missing key field %q for template %q", name, template)
		}
		b.WriteString(rest[:i])
		b.WriteString(v)
		rest = rest[i+j+1:]
	}
}

// RenderAll renders every key path of a descriptor with the same field set.
func RenderAll(d Descriptor, fields map[string]string) ([]string, error) {
	keys := make([]string, 0, len(d.KeyPaths))
	for _, t := range d.KeyPaths {
		k, err := Render(t, fields)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// RenderPrefix renders a template up to (and including the separator
// before) its first unbound placeholder, yielding a scan prefix. Bound
// fields are substituted as usual.
func RenderPrefix(template string, fields map[string]string) string {
	var b strings.Builder
	rest := template
	for {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			b.WriteString(rest)
			return b.String()
		}
		j := strings.IndexByte(rest[i:], '}')
		if j < 0 {
			b.WriteString(rest[:i])
			return b.String()
		}
		name := rest[i+1 : i+j]
		v, ok := fields[name]
		if !ok || v == "" {
			b.WriteString(rest[:i])
			return b.String()
		}
		b.WriteString(rest[:i])
		b.WriteString(v)
		rest = rest[i+j+1:]
	}
}
