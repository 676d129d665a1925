package storage

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/server/models"
	"github.com/plume-im/plume/internal/server/repositories/correspondents"
	"github.com/plume-im/plume/internal/server/repositories/exchanges"
	"github.com/plume-im/plume/internal/server/repositories/handshakes"
	"github.com/plume-im/plume/internal/server/repositories/sessions"
	"github.com/plume-im/plume/internal/server/repositories/users"
)

// memTables holds every table as a map keyed by row id. Rows are stored by
// value, so cloning the maps snapshots the whole store.
type memTables struct {
	users          map[string]models.User
	sessions       map[string]models.Session
	inits          map[string]models.CorrespondenceInit
	answered       map[string]models.AnsweredRequest
	filled         map[string]models.FilledRequest
	fullyFilled    map[string]models.FullyFilledRequest
	relays         map[string]models.AcceptedRelay
	correspondents map[string]models.Correspondent
	exchanges      map[string]models.Exchange
	messages       map[string]models.Message
}

func newMemTables() *memTables {
	return &memTables{
		users:          make(map[string]models.User),
		sessions:       make(map[string]models.Session),
		inits:          make(map[string]models.CorrespondenceInit),
		answered:       make(map[string]models.AnsweredRequest),
		filled:         make(map[string]models.FilledRequest),
		fullyFilled:    make(map[string]models.FullyFilledRequest),
		relays:         make(map[string]models.AcceptedRelay),
		correspondents: make(map[string]models.Correspondent),
		exchanges:      make(map[string]models.Exchange),
		messages:       make(map[string]models.Message),
	}
}

func (t *memTables) clone() *memTables {
	return &memTables{
		users:          maps.Clone(t.users),
		sessions:       maps.Clone(t.sessions),
		inits:          maps.Clone(t.inits),
		answered:       maps.Clone(t.answered),
		filled:         maps.Clone(t.filled),
		fullyFilled:    maps.Clone(t.fullyFilled),
		relays:         maps.Clone(t.relays),
		correspondents: maps.Clone(t.correspondents),
		exchanges:      maps.Clone(t.exchanges),
		messages:       maps.Clone(t.messages),
	}
}

func (t *memTables) restore(snap *memTables) {
	*t = *snap
}

// MemoryStore keeps everything in process memory. Useful for tests and for
// running a throwaway server without PostgreSQL. WithinTx snapshots the
// tables up front and restores them if the callback fails, which matches the
// rollback semantics of the PostgreSQL store.
type MemoryStore struct {
	mu     sync.Mutex
	noLock bool
	tables *memTables
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: newMemTables()}
}

func (s *MemoryStore) lock() {
	if !s.noLock {
		s.mu.Lock()
	}
}

func (s *MemoryStore) unlock() {
	if !s.noLock {
		s.mu.Unlock()
	}
}

func (s *MemoryStore) Users() users.Repository {
	return memUsers{s}
}

func (s *MemoryStore) Sessions() sessions.Repository {
	return memSessions{s}
}

func (s *MemoryStore) Handshakes() handshakes.Repository {
	return memHandshakes{s}
}

func (s *MemoryStore) Correspondents() correspondents.Repository {
	return memCorrespondents{s}
}

func (s *MemoryStore) Exchanges() exchanges.Repository {
	return memExchanges{s}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.noLock {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.tables.clone()
	view := &MemoryStore{noLock: true, tables: s.tables}

	if err := fn(ctx, view); err != nil {
		s.tables.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) RunMigrations(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, u := range r.s.tables.users {
		if u.UsernameHash == user.UsernameHash {
			return nil, common.ErrorConflict
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	r.s.tables.users[user.ID] = *user
	return user, nil
}

func (r memUsers) FindByUsernameHash(ctx context.Context, usernameHash string) (*models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, u := range r.s.tables.users {
		if u.UsernameHash == usernameHash {
			found := u
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memSessions struct{ s *MemoryStore }

func (r memSessions) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	r.s.lock()
	defer r.s.unlock()

	session.ID = uuid.NewString()
	session.CreatedAt = time.Now()
	r.s.tables.sessions[session.ID] = *session
	return session, nil
}

func (r memSessions) FindByToken(ctx context.Context, accessToken string) (*models.Session, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, sess := range r.s.tables.sessions {
		if sess.AccessToken == accessToken {
			found := sess
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memSessions) Delete(ctx context.Context, id string) error {
	r.s.lock()
	defer r.s.unlock()

	delete(r.s.tables.sessions, id)
	return nil
}

type memHandshakes struct{ s *MemoryStore }

func (r memHandshakes) CreateInit(ctx context.Context, init *models.CorrespondenceInit) (*models.CorrespondenceInit, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, i := range r.s.tables.inits {
		if i.CorrespondenceInitID == init.CorrespondenceInitID || i.CorrespondenceCode == init.CorrespondenceCode {
			return nil, common.ErrorConflict
		}
	}

	init.ID = uuid.NewString()
	init.CreatedAt = time.Now()
	r.s.tables.inits[init.ID] = *init
	return init, nil
}

func (r memHandshakes) FindInitByCode(ctx context.Context, correspondenceCode string) (*models.CorrespondenceInit, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, i := range r.s.tables.inits {
		if i.CorrespondenceCode == correspondenceCode {
			found := i
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memHandshakes) FindInitByID(ctx context.Context, correspondenceInitID string) (*models.CorrespondenceInit, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, i := range r.s.tables.inits {
		if i.CorrespondenceInitID == correspondenceInitID {
			found := i
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memHandshakes) CreateAnswered(ctx context.Context, answered *models.AnsweredRequest) (*models.AnsweredRequest, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, a := range r.s.tables.answered {
		if a.CorrespondenceInitID == answered.CorrespondenceInitID {
			return nil, common.ErrorConflict
		}
	}

	answered.ID = uuid.NewString()
	answered.CreatedAt = time.Now()
	r.s.tables.answered[answered.ID] = *answered
	return answered, nil
}

func (r memHandshakes) FindAnsweredByInitID(ctx context.Context, correspondenceInitID string) (*models.AnsweredRequest, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, a := range r.s.tables.answered {
		if a.CorrespondenceInitID == correspondenceInitID {
			found := a
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memHandshakes) CreateFilled(ctx context.Context, filled *models.FilledRequest) (*models.FilledRequest, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, f := range r.s.tables.filled {
		if f.CorrespondenceInitID == filled.CorrespondenceInitID {
			return nil, common.ErrorConflict
		}
	}

	filled.ID = uuid.NewString()
	filled.CreatedAt = time.Now()
	r.s.tables.filled[filled.ID] = *filled
	return filled, nil
}

func (r memHandshakes) FindFilledByInitID(ctx context.Context, correspondenceInitID string) (*models.FilledRequest, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, f := range r.s.tables.filled {
		if f.CorrespondenceInitID == correspondenceInitID {
			found := f
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memHandshakes) ListPendingFilled(ctx context.Context, userID string) ([]models.PendingFilled, error) {
	r.s.lock()
	defer r.s.unlock()

	var rows []models.FilledRequest
	for _, f := range r.s.tables.filled {
		if f.ForUserID == userID {
			rows = append(rows, f)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })

	var pending []models.PendingFilled
	for _, f := range rows {
		for _, i := range r.s.tables.inits {
			if i.CorrespondenceInitID == f.CorrespondenceInitID {
				pending = append(pending, models.PendingFilled{
					CorrespondenceInitID:  f.CorrespondenceInitID,
					CorrespondenceKeyCIPK: f.CorrespondenceKeyCIPK,
					UserDisplayNameCK:     f.UserDisplayNameCK,
					PrivateKeyMK:          i.PrivateKeyMK,
				})
				break
			}
		}
	}
	return pending, nil
}

func (r memHandshakes) CreateFullyFilled(ctx context.Context, req *models.FullyFilledRequest) (*models.FullyFilledRequest, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, ff := range r.s.tables.fullyFilled {
		if ff.CorrespondenceInitID == req.CorrespondenceInitID {
			return nil, common.ErrorConflict
		}
	}

	req.ID = uuid.NewString()
	req.CreatedAt = time.Now()
	r.s.tables.fullyFilled[req.ID] = *req
	return req, nil
}

func (r memHandshakes) FindFullyFilledByInitID(ctx context.Context, correspondenceInitID string) (*models.FullyFilledRequest, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, ff := range r.s.tables.fullyFilled {
		if ff.CorrespondenceInitID == correspondenceInitID {
			found := ff
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memHandshakes) ListPendingFullyFilled(ctx context.Context, userID string) ([]models.PendingFullyFilled, error) {
	r.s.lock()
	defer r.s.unlock()

	var rows []models.FullyFilledRequest
	for _, ff := range r.s.tables.fullyFilled {
		if ff.ForUserID == userID {
			rows = append(rows, ff)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })

	var pending []models.PendingFullyFilled
	for _, ff := range rows {
		for _, a := range r.s.tables.answered {
			if a.CorrespondenceInitID == ff.CorrespondenceInitID {
				pending = append(pending, models.PendingFullyFilled{
					CorrespondenceInitID: ff.CorrespondenceInitID,
					CorrespondenceKeyMK:  a.CorrespondenceKeyMK,
					UserDisplayNameCK:    ff.UserDisplayNameCK,
					ServerURL:            a.ServerURL,
				})
				break
			}
		}
	}
	return pending, nil
}

func (r memHandshakes) DeleteFullyFilled(ctx context.Context, id string) error {
	r.s.lock()
	defer r.s.unlock()

	delete(r.s.tables.fullyFilled, id)
	return nil
}

func (r memHandshakes) CreateAcceptedRelay(ctx context.Context, relay *models.AcceptedRelay) (*models.AcceptedRelay, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, rr := range r.s.tables.relays {
		if rr.CorrespondenceInitID == relay.CorrespondenceInitID {
			return nil, common.ErrorConflict
		}
	}

	relay.ID = uuid.NewString()
	relay.CreatedAt = time.Now()
	r.s.tables.relays[relay.ID] = *relay
	return relay, nil
}

func (r memHandshakes) FindAcceptedRelayByInitID(ctx context.Context, correspondenceInitID string) (*models.AcceptedRelay, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, rr := range r.s.tables.relays {
		if rr.CorrespondenceInitID == correspondenceInitID {
			found := rr
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memHandshakes) DeleteAcceptedRelay(ctx context.Context, id string) error {
	r.s.lock()
	defer r.s.unlock()

	delete(r.s.tables.relays, id)
	return nil
}

type memCorrespondents struct{ s *MemoryStore }

func (r memCorrespondents) Create(ctx context.Context, correspondent *models.Correspondent) (*models.Correspondent, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, c := range r.s.tables.correspondents {
		if c.IncomingAccessToken == correspondent.IncomingAccessToken {
			return nil, common.ErrorConflict
		}
	}

	correspondent.ID = uuid.NewString()
	correspondent.CreatedAt = time.Now()
	r.s.tables.correspondents[correspondent.ID] = *correspondent
	return correspondent, nil
}

func (r memCorrespondents) FindByID(ctx context.Context, id string) (*models.Correspondent, error) {
	r.s.lock()
	defer r.s.unlock()

	if c, ok := r.s.tables.correspondents[id]; ok {
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (r memCorrespondents) FindByIncomingToken(ctx context.Context, incomingAccessToken string) (*models.Correspondent, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, c := range r.s.tables.correspondents {
		if c.IncomingAccessToken == incomingAccessToken {
			found := c
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memCorrespondents) ListForUser(ctx context.Context, userID string) ([]models.Correspondent, error) {
	r.s.lock()
	defer r.s.unlock()

	var result []models.Correspondent
	for _, c := range r.s.tables.correspondents {
		if c.ForUserID == userID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type memExchanges struct{ s *MemoryStore }

func (r memExchanges) CreateExchange(ctx context.Context, exchange *models.Exchange) (*models.Exchange, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, e := range r.s.tables.exchanges {
		if e.ExchangeID == exchange.ExchangeID {
			return nil, common.ErrorConflict
		}
	}

	exchange.ID = uuid.NewString()
	exchange.CreatedAt = time.Now()
	r.s.tables.exchanges[exchange.ID] = *exchange
	return exchange, nil
}

func (r memExchanges) FindExchangeByExchangeID(ctx context.Context, exchangeID string) (*models.Exchange, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, e := range r.s.tables.exchanges {
		if e.ExchangeID == exchangeID {
			found := e
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memExchanges) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	r.s.lock()
	defer r.s.unlock()

	message.ID = uuid.NewString()
	message.CreatedAt = time.Now()
	r.s.tables.messages[message.ID] = *message
	return message, nil
}

func (r memExchanges) ListMessagesForUser(ctx context.Context, userID string) ([]models.MessageView, error) {
	r.s.lock()
	defer r.s.unlock()

	var result []models.MessageView
	for _, m := range r.s.tables.messages {
		e, ok := r.s.tables.exchanges[m.ExchangeID]
		if !ok || e.UserID != userID {
			continue
		}
		c, ok := r.s.tables.correspondents[e.CorrespondentID]
		if !ok {
			continue
		}
		result = append(result, models.MessageView{
			Message:             m,
			ThreadExchangeID:    e.ExchangeID,
			CorrespondentID:     e.CorrespondentID,
			CorrespondenceKeyMK: c.CorrespondenceKeyMK,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}
