package chatmem

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"
)

// Limits bounds how much a store retains.
type Limits struct {
	// MaxConversationsPerTenant caps conversations held per tenant.
	// Exceeding the cap evicts the oldest-created conversation.
	MaxConversationsPerTenant int

	// MaxMessagesPerConversation caps retained messages per
	// conversation. Exceeding the cap trims the oldest messages.
	MaxMessagesPerConversation int
}

// Default limits applied by StoreConfig.withDefaults.
const (
	DefaultMaxConversationsPerTenant  = 50
	DefaultMaxMessagesPerConversation = 200
)

// Clock supplies the current time. Injectable so tests can pin eviction
// and grouping behavior deterministically.
type Clock func() time.Time

// IDGenerator supplies fresh unique identifiers.
type IDGenerator func() string

// StoreConfig configures a Store instance.
type StoreConfig struct {
	// Limits are the retention bounds. Zero values take defaults.
	Limits Limits

	// Clock is the time source. Defaults to time.Now.
	Clock Clock

	// IDGenerator creates conversation and message IDs.
	// Defaults to uuid-based IDs.
	IDGenerator IDGenerator

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// withDefaults applies default values to the config.
func (c StoreConfig) withDefaults() StoreConfig {
	if c.Limits.MaxConversationsPerTenant <= 0 {
		c.Limits.MaxConversationsPerTenant = DefaultMaxConversationsPerTenant
	}
	if c.Limits.MaxMessagesPerConversation <= 0 {
		c.Limits.MaxMessagesPerConversation = DefaultMaxMessagesPerConversation
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.IDGenerator == nil {
		c.IDGenerator = NewConversationID
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Store is the single source of truth for conversation state: an
// in-memory, process-lifetime registry of tenant → conversation →
// ordered messages. It is safe for concurrent use; mutation is
// serialized per tenant partition and reads return deep-copied
// snapshots.
//
// The store is volatile by design. Durability across restarts belongs
// to a layer underneath this interface, not here.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenantPartition

	limits Limits
	now    Clock
	newID  IDGenerator
	logger *slog.Logger
}

// tenantPartition holds one tenant's conversations. Partitions are
// created lazily on first reference and guard their own state so
// cross-tenant operations never contend.
type tenantPartition struct {
	mu            sync.RWMutex
	conversations map[string]*conversationState
	seq           uint64
}

// conversationState is a conversation plus its insertion sequence
// number, used to break eviction and ordering ties.
type conversationState struct {
	conv Conversation
	seq  uint64
}

// NewStore creates a new in-memory conversation store.
func NewStore(cfg StoreConfig) *Store {
	cfg = cfg.withDefaults()
	return &Store{
		tenants: make(map[string]*tenantPartition),
		limits:  cfg.Limits,
		now:     cfg.Clock,
		newID:   cfg.IDGenerator,
		logger:  cfg.Logger.With(slog.String("component", "chatmem.store")),
	}
}

// Limits returns the retention bounds the store enforces.
func (s *Store) Limits() Limits {
	return s.limits
}

// partition returns the tenant's partition, creating it on first
// reference. Only mutating operations call this; lookups go through
// lookupPartition so that probing an unknown tenant does not grow the
// tenant map.
func (s *Store) partition(tenant string) *tenantPartition {
	s.mu.RLock()
	p, ok := s.tenants[tenant]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.tenants[tenant]; ok {
		return p
	}
	p = &tenantPartition{conversations: make(map[string]*conversationState)}
	s.tenants[tenant] = p
	return p
}

// lookupPartition returns the tenant's partition without creating one.
func (s *Store) lookupPartition(tenant string) (*tenantPartition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.tenants[tenant]
	return p, ok
}

// CreateConversation allocates a new conversation for the tenant. When
// conversationID is empty a fresh unique ID is generated; when it names
// an existing conversation, that conversation is returned unchanged.
// The title is derived from seed, falling back to PlaceholderTitle.
// When the tenant is at its conversation cap, the oldest-created
// conversation is evicted first.
func (s *Store) CreateConversation(tenant, conversationID, seed string) (*Conversation, error) {
	if tenant == "" {
		return nil, fmt.Errorf("%w: tenant is required", ErrInvalidArgument)
	}

	p := s.partition(tenant)
	p.mu.Lock()
	defer p.mu.Unlock()

	if conversationID != "" {
		if existing, ok := p.conversations[conversationID]; ok {
			conv := cloneConversation(existing.conv)
			return &conv, nil
		}
	}

	state := s.createLocked(p, tenant, conversationID, seed)
	conv := cloneConversation(state.conv)
	return &conv, nil
}

// createLocked inserts a new conversation into the partition, evicting
// the oldest-created conversation if the tenant cap would be exceeded.
// The partition lock must be held.
func (s *Store) createLocked(p *tenantPartition, tenant, conversationID, seed string) *conversationState {
	if conversationID == "" {
		conversationID = s.newID()
	}

	if len(p.conversations) >= s.limits.MaxConversationsPerTenant {
		s.evictOldestLocked(p, tenant)
	}

	now := s.now()
	p.seq++
	state := &conversationState{
		conv: Conversation{
			ID:        conversationID,
			Title:     DeriveTitle(seed),
			Messages:  []Message{},
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: p.seq,
	}
	p.conversations[conversationID] = state
	return state
}

// evictOldestLocked removes the conversation with the smallest creation
// timestamp, breaking ties by insertion order. Not an access-based LRU:
// reading a conversation never protects it from eviction.
func (s *Store) evictOldestLocked(p *tenantPartition, tenant string) {
	var oldest *conversationState
	for _, state := range p.conversations {
		if oldest == nil {
			oldest = state
			continue
		}
		if state.conv.CreatedAt.Before(oldest.conv.CreatedAt) ||
			(state.conv.CreatedAt.Equal(oldest.conv.CreatedAt) && state.seq < oldest.seq) {
			oldest = state
		}
	}
	if oldest == nil {
		return
	}

	delete(p.conversations, oldest.conv.ID)
	s.logger.Debug("evicted conversation at tenant cap",
		slog.String("tenant", tenant),
		slog.String("conversation_id", oldest.conv.ID),
		slog.Time("created_at", oldest.conv.CreatedAt),
	)
}

// AppendMessage appends a message to the conversation, implicitly
// creating the conversation if it does not exist. The title is seeded
// from content only when role is RoleUser; the first user message
// re-derives the title even over an existing placeholder. Messages past
// MaxMessagesPerConversation are trimmed from the front, oldest first.
func (s *Store) AppendMessage(tenant, conversationID string, role Role, content string, metadata Metadata) (*Message, error) {
	switch {
	case tenant == "":
		return nil, fmt.Errorf("%w: tenant is required", ErrInvalidArgument)
	case conversationID == "":
		return nil, fmt.Errorf("%w: conversation id is required", ErrInvalidArgument)
	case !role.valid():
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrInvalidArgument, RoleUser, RoleAssistant)
	case content == "":
		return nil, fmt.Errorf("%w: content is required", ErrInvalidArgument)
	}

	p := s.partition(tenant)
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.conversations[conversationID]
	if !ok {
		seed := ""
		if role == RoleUser {
			seed = content
		}
		state = s.createLocked(p, tenant, conversationID, seed)
	}

	// First user message owns the title, even over a placeholder left
	// by an explicit create without a seed.
	if len(state.conv.Messages) == 0 && role == RoleUser {
		state.conv.Title = DeriveTitle(content)
	}

	msg := Message{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Metadata:  cloneMetadata(metadata),
		CreatedAt: s.now(),
	}

	state.conv.Messages = append(state.conv.Messages, msg)
	if over := len(state.conv.Messages) - s.limits.MaxMessagesPerConversation; over > 0 {
		state.conv.Messages = append([]Message(nil), state.conv.Messages[over:]...)
	}
	state.conv.MessageCount = len(state.conv.Messages)
	state.conv.UpdatedAt = msg.CreatedAt

	out := cloneMessage(msg)
	return &out, nil
}

// GetConversation returns a snapshot of the conversation with all
// retained messages, or ErrConversationNotFound. IDs are unique only
// within their tenant namespace; a matching ID under another tenant is
// never visible here.
func (s *Store) GetConversation(tenant, conversationID string) (*Conversation, error) {
	p, ok := s.lookupPartition(tenant)
	if !ok {
		return nil, ErrConversationNotFound
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	state, ok := p.conversations[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	conv := cloneConversation(state.conv)
	return &conv, nil
}

// ListConversations returns one summary per conversation, most recently
// active first. An unknown tenant yields an empty slice, never an error.
func (s *Store) ListConversations(tenant string) []ConversationSummary {
	p, ok := s.lookupPartition(tenant)
	if !ok {
		return []ConversationSummary{}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	type entry struct {
		summary ConversationSummary
		seq     uint64
	}
	entries := make([]entry, 0, len(p.conversations))
	for _, state := range p.conversations {
		preview := ""
		if n := len(state.conv.Messages); n > 0 {
			preview = previewText(state.conv.Messages[n-1].Content)
		}
		entries = append(entries, entry{
			summary: ConversationSummary{
				ID:           state.conv.ID,
				Title:        state.conv.Title,
				MessageCount: state.conv.MessageCount,
				Preview:      preview,
				CreatedAt:    state.conv.CreatedAt,
				UpdatedAt:    state.conv.UpdatedAt,
			},
			seq: state.seq,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].summary.UpdatedAt.Equal(entries[j].summary.UpdatedAt) {
			return entries[i].summary.UpdatedAt.After(entries[j].summary.UpdatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	summaries := make([]ConversationSummary, len(entries))
	for i, e := range entries {
		summaries[i] = e.summary
	}
	return summaries
}

// DeleteConversation removes the conversation if present and reports
// whether a removal occurred. Deleting a missing conversation returns
// false, not an error.
func (s *Store) DeleteConversation(tenant, conversationID string) bool {
	p, ok := s.lookupPartition(tenant)
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.conversations[conversationID]; !ok {
		return false
	}
	delete(p.conversations, conversationID)
	return true
}

// RenameConversation replaces the title and bumps UpdatedAt. Returns
// false when the conversation does not exist or newTitle is empty.
func (s *Store) RenameConversation(tenant, conversationID, newTitle string) bool {
	if newTitle == "" {
		return false
	}

	p, ok := s.lookupPartition(tenant)
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.conversations[conversationID]
	if !ok {
		return false
	}
	state.conv.Title = newTitle
	state.conv.UpdatedAt = s.now()
	return true
}

// Stats computes aggregate counts by full traversal. Zero-denominator
// averages yield 0, not an error.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	partitions := make([]*tenantPartition, 0, len(s.tenants))
	for _, p := range s.tenants {
		partitions = append(partitions, p)
	}
	s.mu.RUnlock()

	stats := Stats{TenantCount: len(partitions)}
	for _, p := range partitions {
		p.mu.RLock()
		stats.ConversationCount += len(p.conversations)
		for _, state := range p.conversations {
			stats.MessageCount += len(state.conv.Messages)
		}
		p.mu.RUnlock()
	}

	if stats.TenantCount > 0 {
		stats.AvgConversationsPerTenant = int(math.Round(float64(stats.ConversationCount) / float64(stats.TenantCount)))
	}
	if stats.ConversationCount > 0 {
		stats.AvgMessagesPerConversation = int(math.Round(float64(stats.MessageCount) / float64(stats.ConversationCount)))
	}
	return stats
}

// cloneConversation deep-copies a conversation so callers can never
// mutate stored state through a returned snapshot.
func cloneConversation(c Conversation) Conversation {
	msgs := make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		msgs[i] = cloneMessage(m)
	}
	c.Messages = msgs
	return c
}

func cloneMessage(m Message) Message {
	m.Metadata = cloneMetadata(m.Metadata)
	return m
}

func cloneMetadata(md Metadata) Metadata {
	if md == nil {
		return nil
	}
	out := make(Metadata, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
