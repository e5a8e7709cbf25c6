package models

// Visibility controls who may read a chat.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// MessageRole identifies the author side of a chat message.
type MessageRole string

const (
	RoleUnspecified MessageRole = ""
	RoleUser        MessageRole = "user"
	RoleAssistant   MessageRole = "assistant"
	RoleSystem      MessageRole = "system"
)

// DocumentKind is the artifact type of a document.
type DocumentKind string

const (
	DocText  DocumentKind = "text"
	DocCode  DocumentKind = "code"
	DocImage DocumentKind = "image"
	DocSheet DocumentKind = "sheet"
)

// ResolutionStatus is the review state of a suggestion.
type ResolutionStatus string

const (
	ResolutionPending  ResolutionStatus = "pending"
	ResolutionResolved ResolutionStatus = "resolved"
	ResolutionRejected ResolutionStatus = "rejected"
)

// User is an authenticated account. Guest accounts are identical in shape
// but carry an empty PasswordHash.
type User struct {
	ID           uint64 `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"`
	// CreatedTS / LastModifiedTS are assigned from the store clock on write.
	CreatedTS      int64 `json:"created_ts,omitempty"`
	LastModifiedTS int64 `json:"last_modified_ts,omitempty"`
}

// AppUsage records which client produced chat activity.
type AppUsage struct {
	App      string   `json:"app"`
	Version  string   `json:"version"`
	Features []string `json:"features,omitempty"`
	Metadata string   `json:"metadata,omitempty"`
}

// Chat is a conversation thread owned by a user.
type Chat struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title,omitempty"`
	UserID      uint64     `json:"user_id"`
	Visibility  Visibility `json:"visibility,omitempty"`
	LastContext *AppUsage  `json:"last_context,omitempty"`
	CreatedTS   int64      `json:"created_ts,omitempty"`
	UpdatedTS   int64      `json:"updated_ts,omitempty"`
	// LastSeq is the most recently allocated message sequence id for this
	// chat. Message ids are allocated from it under a per-chat lock.
	LastSeq uint64 `json:"last_seq,omitempty"`
}

// MessagePart is one typed content block inside a message.
type MessagePart struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// MessageAttachment is an uploaded file referenced by a message.
type MessageAttachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     uint64 `json:"size"`
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// Message is one entry in a chat. ID is a sequence id scoped to the chat;
// ordering within a chat is defined by it, never by timestamp.
type Message struct {
	ID          uint64              `json:"id"`
	ChatID      uint64              `json:"chat_id"`
	Role        MessageRole         `json:"role,omitempty"`
	Parts       []MessagePart       `json:"parts"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
	CreatedTS   int64               `json:"created_ts,omitempty"`
	// CreatedAtVersion mirrors the store's monotonic write version.
	CreatedAtVersion uint64 `json:"created_at_version,omitempty"`
}

// Document is user-created content. An edit never mutates an existing
// record: it writes a new item with the same ID and a fresh CreatedTS, so
// the items sharing an ID form an append-only version chain. CreatedTS is
// an explicit field (not store metadata) because key paths cannot reference
// metadata; it must come from the store clock to keep version order
// consistent.
type Document struct {
	ID        uint64       `json:"id"`
	UserID    uint64       `json:"user_id"`
	Title     string       `json:"title"`
	Content   string       `json:"content,omitempty"`
	Kind      DocumentKind `json:"kind,omitempty"`
	CreatedTS int64        `json:"created_ts"`
	UpdatedTS int64        `json:"updated_ts,omitempty"`
}

// Suggestion is reviewer feedback bound to one immutable document version
// (DocumentVersion equals that version's CreatedTS).
type Suggestion struct {
	ID               uint64           `json:"id"`
	DocumentID       uint64           `json:"document_id"`
	DocumentVersion  int64            `json:"document_version"`
	OriginalText     string           `json:"original_text"`
	SuggestedText    string           `json:"suggested_text"`
	Description      string           `json:"description,omitempty"`
	ResolutionStatus ResolutionStatus `json:"resolution_status,omitempty"`
	UserID           uint64           `json:"user_id"`
	ResolvedTS       int64            `json:"resolved_ts,omitempty"`
}

// Stream is a live response stream for a chat. The store expires it 24h
// after creation; no update can extend the deadline, callers needing a
// longer-lived stream must create a new one.
type Stream struct {
	ID             uint64 `json:"id"`
	ChatID         uint64 `json:"chat_id"`
	Active         bool   `json:"active"`
	CreatedTS      int64  `json:"created_ts,omitempty"`
	LastActivityTS int64  `json:"last_activity_ts,omitempty"`
}

// Vote has no id of its own: the (chat, message) pair is the identity, so
// a later vote on the same message overwrites the earlier one.
type Vote struct {
	ChatID    uint64 `json:"chat_id"`
	MessageID uint64 `json:"message_id"`
	IsUpvoted bool   `json:"is_upvoted"`
	VotedTS   int64  `json:"voted_ts,omitempty"`
}
