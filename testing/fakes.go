package testing

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/utils"
)

// The fakes below hold rows in maps keyed by ID and mirror the lookup
// semantics of the SQL-backed repositories: absent rows come back as
// (nil, nil), token lookups only return live sessions, and kind-scoped
// document lookups match the CNPJ together with the account kind.

// FakeAccountTypeRepository is an in-memory AccountTypeRepository.
type FakeAccountTypeRepository struct {
	mu    sync.Mutex
	types map[uint]*models.AccountType
	next  uint
}

func NewFakeAccountTypeRepository() *FakeAccountTypeRepository {
	return &FakeAccountTypeRepository{types: make(map[uint]*models.AccountType)}
}

// SeedDefaultTypes registers the three account kinds and returns them keyed
// by type name.
func (r *FakeAccountTypeRepository) SeedDefaultTypes() map[string]*models.AccountType {
	out := make(map[string]*models.AccountType)
	displayNames := map[string]string{
		models.AccountTypeIndividual: "Individual",
		models.AccountTypeCompany:    "Company",
		models.AccountTypeProvider:   "Service Provider",
	}
	for _, name := range []string{models.AccountTypeIndividual, models.AccountTypeCompany, models.AccountTypeProvider} {
		t := &models.AccountType{TypeName: name, DisplayName: displayNames[name]}
		_ = r.Save(context.Background(), t)
		out[name] = t
	}
	return out
}

func (r *FakeAccountTypeRepository) ByID(ctx context.Context, id uint) (*models.AccountType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.types[id], nil
}

func (r *FakeAccountTypeRepository) ByFilter(ctx context.Context, filter models.AccountTypeFilter, orderBy string, limit, offset int) ([]*models.AccountType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AccountType
	for _, t := range r.types {
		if filter.ID != nil && t.ID != *filter.ID {
			continue
		}
		if filter.TypeName != nil && t.TypeName != *filter.TypeName {
			continue
		}
		out = append(out, t)
	}
	return paginate(out, limit, offset), nil
}

func (r *FakeAccountTypeRepository) Save(ctx context.Context, entity *models.AccountType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == 0 {
		r.next++
		entity.ID = r.next
	}
	r.types[entity.ID] = entity
	return nil
}

func (r *FakeAccountTypeRepository) SaveBatch(ctx context.Context, entities []*models.AccountType) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeAccountTypeRepository) Count(ctx context.Context, filter models.AccountTypeFilter) (int64, error) {
	found, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (r *FakeAccountTypeRepository) Exists(ctx context.Context, filter models.AccountTypeFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *FakeAccountTypeRepository) ByTypeName(ctx context.Context, typeName string) (*models.AccountType, error) {
	found, err := r.ByFilter(ctx, models.AccountTypeFilter{TypeName: &typeName}, "", 0, 0)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

// FakeAccountRepository is an in-memory AccountRepository.
type FakeAccountRepository struct {
	mu       sync.Mutex
	accounts map[uint]*models.Account
	next     uint
}

func NewFakeAccountRepository() *FakeAccountRepository {
	return &FakeAccountRepository{accounts: make(map[uint]*models.Account)}
}

func (r *FakeAccountRepository) ByID(ctx context.Context, id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id], nil
}

func (r *FakeAccountRepository) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Account
	for _, a := range r.accounts {
		if matchAccount(a, filter) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, offset), nil
}

func matchAccount(a *models.Account, f models.AccountFilter) bool {
	if f.ID != nil && a.ID != *f.ID {
		return false
	}
	if f.UUID != nil && a.UUID != *f.UUID {
		return false
	}
	if f.AccountTypeID != nil && a.AccountTypeID != *f.AccountTypeID {
		return false
	}
	if f.AccountTypeName != nil && a.AccountType.TypeName != *f.AccountTypeName {
		return false
	}
	if f.Email != nil && !strings.EqualFold(a.Email, *f.Email) {
		return false
	}
	if f.CPF != nil && (a.CPF == nil || *a.CPF != *f.CPF) {
		return false
	}
	if f.CNPJ != nil && (a.CNPJ == nil || *a.CNPJ != *f.CNPJ) {
		return false
	}
	if f.IsActive != nil && utils.IsTrue(a.IsActive) != *f.IsActive {
		return false
	}
	if f.IsAdmin != nil && utils.IsTrue(a.IsAdmin) != *f.IsAdmin {
		return false
	}
	if f.IsExcluded != nil && utils.IsTrue(a.IsExcluded) != *f.IsExcluded {
		return false
	}
	if f.Search != nil {
		needle := strings.ToLower(*f.Search)
		haystacks := []string{a.FirstName, a.Email}
		if a.LastName != nil {
			haystacks = append(haystacks, *a.LastName)
		}
		if a.LegalName != nil {
			haystacks = append(haystacks, *a.LegalName)
		}
		if a.CPF != nil {
			haystacks = append(haystacks, *a.CPF)
		}
		if a.CNPJ != nil {
			haystacks = append(haystacks, *a.CNPJ)
		}
		found := false
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *FakeAccountRepository) Save(ctx context.Context, entity *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == 0 {
		r.next++
		entity.ID = r.next
	}
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = utils.UTCNow()
	}
	r.accounts[entity.ID] = entity
	return nil
}

func (r *FakeAccountRepository) SaveBatch(ctx context.Context, entities []*models.Account) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeAccountRepository) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	found, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (r *FakeAccountRepository) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *FakeAccountRepository) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	found, err := r.ByFilter(ctx, models.AccountFilter{Email: &email}, "", 0, 0)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[len(found)-1], nil
}

func (r *FakeAccountRepository) ByUUID(ctx context.Context, uuidStr string) (*models.Account, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	found, err := r.ByFilter(ctx, models.AccountFilter{UUID: &parsed}, "", 0, 0)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *FakeAccountRepository) ByCPF(ctx context.Context, cpf string) (*models.Account, error) {
	kind := models.AccountTypeIndividual
	found, err := r.ByFilter(ctx, models.AccountFilter{CPF: &cpf, AccountTypeName: &kind}, "", 0, 0)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *FakeAccountRepository) ByCNPJ(ctx context.Context, kind string, cnpj string) (*models.Account, error) {
	found, err := r.ByFilter(ctx, models.AccountFilter{CNPJ: &cnpj, AccountTypeName: &kind}, "", 0, 0)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *FakeAccountRepository) FindByIDs(ctx context.Context, ids []uint) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Account
	for _, id := range ids {
		if a, ok := r.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *FakeAccountRepository) ListActiveByKind(ctx context.Context, kind string, limit, offset int) ([]*models.Account, error) {
	active := true
	excluded := false
	return r.ByFilter(ctx, models.AccountFilter{AccountTypeName: &kind, IsActive: &active, IsExcluded: &excluded}, "", limit, offset)
}

func (r *FakeAccountRepository) Update(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[account.ID]
	if !ok {
		return nil
	}
	stored.FirstName = account.FirstName
	stored.LastName = account.LastName
	stored.Phone = account.Phone
	stored.Email = account.Email
	stored.ProfilePhoto = account.ProfilePhoto
	stored.HideSensitiveData = account.HideSensitiveData
	stored.LegalName = account.LegalName
	stored.Specialty = account.Specialty
	stored.UpdatedAt = utils.UTCNow()
	return nil
}

func (r *FakeAccountRepository) UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		a.PasswordHash = passwordHash
	}
	return nil
}

func (r *FakeAccountRepository) UpdateActiveStatus(ctx context.Context, accountID uint, isActive bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		a.IsActive = utils.ToPtr(isActive)
	}
	return nil
}

func (r *FakeAccountRepository) UpdateAdminStatus(ctx context.Context, accountID uint, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		a.IsAdmin = utils.ToPtr(isAdmin)
	}
	return nil
}

func (r *FakeAccountRepository) UpdateLockoutState(ctx context.Context, accountID uint, failedAttempts int, lastFailureAt, lockedUntil *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		a.FailedAttempts = failedAttempts
		a.LastFailureAt = lastFailureAt
		a.LockedUntil = lockedUntil
	}
	return nil
}

func (r *FakeAccountRepository) MarkExcluded(ctx context.Context, accountID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		a.IsActive = utils.ToPtr(false)
		a.IsExcluded = utils.ToPtr(true)
	}
	return nil
}

func (r *FakeAccountRepository) HardDelete(ctx context.Context, accountID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, accountID)
	return nil
}

// FakeAccountSessionRepository is an in-memory AccountSessionRepository.
type FakeAccountSessionRepository struct {
	mu       sync.Mutex
	sessions map[uint]*models.AccountSession
	next     uint
}

func NewFakeAccountSessionRepository() *FakeAccountSessionRepository {
	return &FakeAccountSessionRepository{sessions: make(map[uint]*models.AccountSession)}
}

func (r *FakeAccountSessionRepository) ByID(ctx context.Context, id uint) (*models.AccountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id], nil
}

func (r *FakeAccountSessionRepository) ByFilter(ctx context.Context, filter models.AccountSessionFilter, orderBy string, limit, offset int) ([]*models.AccountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AccountSession
	for _, s := range r.sessions {
		if filter.ID != nil && s.ID != *filter.ID {
			continue
		}
		if filter.AccountID != nil && s.AccountID != *filter.AccountID {
			continue
		}
		if filter.CorrelationID != nil && s.CorrelationID != *filter.CorrelationID {
			continue
		}
		if filter.IsActive != nil && utils.IsTrue(s.IsActive) != *filter.IsActive {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, offset), nil
}

func (r *FakeAccountSessionRepository) Save(ctx context.Context, entity *models.AccountSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == 0 {
		r.next++
		entity.ID = r.next
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = utils.UTCNow()
	}
	r.sessions[entity.ID] = entity
	return nil
}

func (r *FakeAccountSessionRepository) SaveBatch(ctx context.Context, entities []*models.AccountSession) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeAccountSessionRepository) Count(ctx context.Context, filter models.AccountSessionFilter) (int64, error) {
	found, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (r *FakeAccountSessionRepository) Exists(ctx context.Context, filter models.AccountSessionFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *FakeAccountSessionRepository) BySessionToken(ctx context.Context, token string) (*models.AccountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.SessionToken == token && utils.IsTrue(s.IsActive) && s.ExpiresAt.After(time.Now()) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *FakeAccountSessionRepository) ByRefreshToken(ctx context.Context, token string) (*models.AccountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RefreshToken != nil && *s.RefreshToken == token && utils.IsTrue(s.IsActive) && s.ExpiresAt.After(time.Now()) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *FakeAccountSessionRepository) ListActiveSessionsByAccount(ctx context.Context, accountID uint) ([]*models.AccountSession, error) {
	active := true
	return r.ByFilter(ctx, models.AccountSessionFilter{AccountID: &accountID, IsActive: &active}, "", 0, 0)
}

func (r *FakeAccountSessionRepository) ExpireSession(ctx context.Context, sessionID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.IsActive = utils.ToPtr(false)
	}
	return nil
}

func (r *FakeAccountSessionRepository) ExpireAllAccountSessions(ctx context.Context, accountID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.AccountID == accountID {
			s.IsActive = utils.ToPtr(false)
		}
	}
	return nil
}

func (r *FakeAccountSessionRepository) CleanupExpiredSessions(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ExpiresAt.Before(time.Now()) {
			s.IsActive = utils.ToPtr(false)
		}
	}
	return nil
}

func (r *FakeAccountSessionRepository) GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.AccountSession, error) {
	found, err := r.ByFilter(ctx, models.AccountSessionFilter{CorrelationID: &correlationID}, "", 0, 0)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[len(found)-1], nil
}

// FakeAuditLogRepository is an in-memory AuditLogRepository.
type FakeAuditLogRepository struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	next uint
}

func NewFakeAuditLogRepository() *FakeAuditLogRepository {
	return &FakeAuditLogRepository{}
}

// Logs returns the recorded entries in insertion order.
func (r *FakeAuditLogRepository) Logs() []*models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.AuditLog, len(r.logs))
	copy(out, r.logs)
	return out
}

func (r *FakeAuditLogRepository) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, nil
}

func (r *FakeAuditLogRepository) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, l := range r.logs {
		if filter.AccountID != nil && (l.AccountID == nil || *l.AccountID != *filter.AccountID) {
			continue
		}
		if filter.Action != nil && l.Action != *filter.Action {
			continue
		}
		if filter.Success != nil && utils.IsTrue(l.Success) != *filter.Success {
			continue
		}
		out = append(out, l)
	}
	return paginate(out, limit, offset), nil
}

func (r *FakeAuditLogRepository) Save(ctx context.Context, entity *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == 0 {
		r.next++
		entity.ID = r.next
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = utils.UTCNow()
	}
	r.logs = append(r.logs, entity)
	return nil
}

func (r *FakeAuditLogRepository) SaveBatch(ctx context.Context, entities []*models.AuditLog) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeAuditLogRepository) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	found, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (r *FakeAuditLogRepository) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *FakeAuditLogRepository) ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.ByFilter(ctx, models.AuditLogFilter{AccountID: &accountID}, "", limit, offset)
}

func (r *FakeAuditLogRepository) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	return r.ByFilter(ctx, models.AuditLogFilter{Action: &action}, "", limit, offset)
}

func (r *FakeAuditLogRepository) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	success := false
	return r.ByFilter(ctx, models.AuditLogFilter{Success: &success}, "", limit, offset)
}

func (r *FakeAuditLogRepository) ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, l := range r.logs {
		if l.IsSecurityEvent() {
			out = append(out, l)
		}
	}
	return paginate(out, limit, offset), nil
}

// FakeOfferedServiceRepository is an in-memory OfferedServiceRepository.
type FakeOfferedServiceRepository struct {
	mu       sync.Mutex
	services map[uint]*models.OfferedService
	next     uint
}

func NewFakeOfferedServiceRepository() *FakeOfferedServiceRepository {
	return &FakeOfferedServiceRepository{services: make(map[uint]*models.OfferedService)}
}

func (r *FakeOfferedServiceRepository) ByID(ctx context.Context, id uint) (*models.OfferedService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.services[id], nil
}

func (r *FakeOfferedServiceRepository) ByFilter(ctx context.Context, filter models.OfferedServiceFilter, orderBy string, limit, offset int) ([]*models.OfferedService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.OfferedService
	for _, s := range r.services {
		if filter.ID != nil && s.ID != *filter.ID {
			continue
		}
		if filter.ProviderID != nil && s.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.Name != nil && s.Name != *filter.Name {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, offset), nil
}

func (r *FakeOfferedServiceRepository) Save(ctx context.Context, entity *models.OfferedService) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == 0 {
		r.next++
		entity.ID = r.next
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = utils.UTCNow()
	}
	r.services[entity.ID] = entity
	return nil
}

func (r *FakeOfferedServiceRepository) SaveBatch(ctx context.Context, entities []*models.OfferedService) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeOfferedServiceRepository) Count(ctx context.Context, filter models.OfferedServiceFilter) (int64, error) {
	found, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (r *FakeOfferedServiceRepository) Exists(ctx context.Context, filter models.OfferedServiceFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *FakeOfferedServiceRepository) ListByProvider(ctx context.Context, providerID uint) ([]*models.OfferedService, error) {
	return r.ByFilter(ctx, models.OfferedServiceFilter{ProviderID: &providerID}, "", 0, 0)
}

func (r *FakeOfferedServiceRepository) Update(ctx context.Context, service *models.OfferedService) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[service.ID]; ok {
		r.services[service.ID] = service
	}
	return nil
}

func (r *FakeOfferedServiceRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, id)
	return nil
}

func (r *FakeOfferedServiceRepository) DeleteByProvider(ctx context.Context, providerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.services {
		if s.ProviderID == providerID {
			delete(r.services, id)
		}
	}
	return nil
}

// FakeTicketRepository is an in-memory TicketRepository.
type FakeTicketRepository struct {
	mu      sync.Mutex
	tickets map[uint]*models.Ticket
	next    uint
}

func NewFakeTicketRepository() *FakeTicketRepository {
	return &FakeTicketRepository{tickets: make(map[uint]*models.Ticket)}
}

func (r *FakeTicketRepository) ByID(ctx context.Context, id uint) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id], nil
}

func (r *FakeTicketRepository) ByFilter(ctx context.Context, filter models.TicketFilter, orderBy string, limit, offset int) ([]*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Ticket
	for _, t := range r.tickets {
		if filter.ID != nil && t.ID != *filter.ID {
			continue
		}
		if filter.UUID != nil && t.UUID != *filter.UUID {
			continue
		}
		if filter.CorrelationID != nil && t.CorrelationID != *filter.CorrelationID {
			continue
		}
		if filter.AccountID != nil && t.AccountID != *filter.AccountID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if filter.RepliedByAdmin != nil && utils.IsTrue(t.RepliedByAdmin) != *filter.RepliedByAdmin {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, offset), nil
}

func (r *FakeTicketRepository) Save(ctx context.Context, entity *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == 0 {
		r.next++
		entity.ID = r.next
	}
	// Mirror the BeforeCreate hook
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	if entity.CorrelationID == uuid.Nil {
		entity.CorrelationID = uuid.New()
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = utils.UTCNow()
	}
	if entity.UpdatedAt.IsZero() {
		entity.UpdatedAt = utils.UTCNow()
	}
	r.tickets[entity.ID] = entity
	return nil
}

func (r *FakeTicketRepository) SaveBatch(ctx context.Context, entities []*models.Ticket) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeTicketRepository) Count(ctx context.Context, filter models.TicketFilter) (int64, error) {
	found, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (r *FakeTicketRepository) Exists(ctx context.Context, filter models.TicketFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *FakeTicketRepository) ByUUID(ctx context.Context, uuidStr string) (*models.Ticket, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	found, err := r.ByFilter(ctx, models.TicketFilter{UUID: &parsed}, "", 0, 0)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *FakeTicketRepository) ByCorrelationID(ctx context.Context, correlationID string) ([]*models.Ticket, error) {
	parsed, err := utils.ParseUUID(correlationID)
	if err != nil {
		return nil, err
	}
	return r.ByFilter(ctx, models.TicketFilter{CorrelationID: &parsed}, "", 0, 0)
}

func (r *FakeTicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; ok {
		ticket.UpdatedAt = utils.UTCNow()
		r.tickets[ticket.ID] = ticket
	}
	return nil
}

func (r *FakeTicketRepository) UpdateStatus(ctx context.Context, ticketID uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickets[ticketID]; ok {
		t.Status = status
		t.UpdatedAt = utils.UTCNow()
	}
	return nil
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
