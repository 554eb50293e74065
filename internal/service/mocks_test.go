package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/internal/oracle"
	"github.com/guardianlink/guardianlink360/internal/repository"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	users     map[string]*domain.User // phone -> user
	findErr   error
	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) addSenior(phone, guardianPhone string) *domain.User {
	u := &domain.User{
		ID:            int64(len(m.users) + 1),
		Name:          "Senior " + phone,
		Phone:         phone,
		Role:          domain.RoleSenior,
		GuardianPhone: guardianPhone,
		CreatedAt:     time.Now(),
	}
	m.users[phone] = u
	return u
}

func (m *mockUserRepo) addGuardian(phone string) *domain.User {
	u := &domain.User{
		ID:        int64(len(m.users) + 1),
		Name:      "Guardian " + phone,
		Phone:     phone,
		Role:      domain.RoleGuardian,
		CreatedAt: time.Now(),
	}
	m.users[phone] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	u := &domain.User{
		ID:            int64(len(m.users) + 1),
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Role:          domain.Role(req.Role),
		GuardianPhone: req.GuardianPhone,
		CreatedAt:     time.Now(),
	}
	m.users[req.Phone] = u
	return u, nil
}

func (m *mockUserRepo) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.users[phone], nil
}

func (m *mockUserRepo) FindByPhoneAndRole(_ context.Context, phone string, role domain.Role) (*domain.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u := m.users[phone]
	if u == nil || u.Role != role {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) ListSeniorsByGuardian(_ context.Context, guardianPhone string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		if u.Role == domain.RoleSenior && u.GuardianPhone == guardianPhone {
			out = append(out, *u)
		}
	}
	return out, nil
}

type mockAlertRepo struct {
	nextID    int64
	alerts    map[int64]*domain.Alert
	createErr error
}

func newMockAlertRepo() *mockAlertRepo {
	return &mockAlertRepo{nextID: 1, alerts: make(map[int64]*domain.Alert)}
}

func (m *mockAlertRepo) Create(_ context.Context, p repository.CreateAlertParams) (*domain.Alert, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	a := &domain.Alert{
		ID:            m.nextID,
		SeniorPhone:   p.SeniorPhone,
		GuardianPhone: p.GuardianPhone,
		Type:          p.Type,
		Status:        domain.AlertActive,
		RiskScore:     p.RiskScore,
		Details:       p.Details,
		CreatedAt:     time.Now(),
	}
	m.alerts[m.nextID] = a
	m.nextID++
	return a, nil
}

func (m *mockAlertRepo) GetByID(_ context.Context, id int64) (*domain.Alert, error) {
	return m.alerts[id], nil
}

func (m *mockAlertRepo) ListByGuardian(_ context.Context, guardianPhone string, limit int) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, a := range m.alerts {
		if a.GuardianPhone == guardianPhone {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAlertRepo) ListBySenior(_ context.Context, seniorPhone string, limit int) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, a := range m.alerts {
		if a.SeniorPhone == seniorPhone {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAlertRepo) Resolve(_ context.Context, id int64) (*domain.Alert, error) {
	a := m.alerts[id]
	if a == nil {
		return nil, nil
	}
	a.Status = domain.AlertResolved
	return a, nil
}

func (m *mockAlertRepo) CountByGuardian(_ context.Context, guardianPhone string, status *domain.AlertStatus) (int64, error) {
	var n int64
	for _, a := range m.alerts {
		if a.GuardianPhone != guardianPhone {
			continue
		}
		if status != nil && a.Status != *status {
			continue
		}
		n++
	}
	return n, nil
}

type mockIncidentRepo struct {
	nextID    int64
	incidents map[int64]*domain.Incident
	createErr error
	escalated []int64
	unfrozen  []string
}

func newMockIncidentRepo() *mockIncidentRepo {
	return &mockIncidentRepo{nextID: 1, incidents: make(map[int64]*domain.Incident)}
}

func (m *mockIncidentRepo) Create(_ context.Context, p repository.CreateIncidentParams) (*domain.Incident, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	inc := &domain.Incident{
		ID:                m.nextID,
		SeniorPhone:       p.SeniorPhone,
		GuardianPhone:     p.GuardianPhone,
		AlertType:         p.AlertType,
		RiskScore:         p.RiskScore,
		CallerDetails:     p.CallerDetails,
		TransactionAmount: p.TransactionAmount,
		TransactionFrozen: p.TransactionFrozen,
		Status:            domain.IncidentOpen,
		CreatedAt:         time.Now(),
	}
	m.incidents[m.nextID] = inc
	m.nextID++
	return inc, nil
}

func (m *mockIncidentRepo) GetByID(_ context.Context, id int64) (*domain.Incident, error) {
	return m.incidents[id], nil
}

func (m *mockIncidentRepo) ListByGuardian(_ context.Context, guardianPhone string, limit int) ([]domain.Incident, error) {
	var out []domain.Incident
	for _, inc := range m.incidents {
		if inc.GuardianPhone == guardianPhone {
			out = append(out, *inc)
		}
	}
	return out, nil
}

func (m *mockIncidentRepo) UpsertTransactionFreeze(_ context.Context, p repository.CreateIncidentParams) (*domain.Incident, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, inc := range m.incidents {
		if inc.SeniorPhone == p.SeniorPhone && inc.Status == domain.IncidentOpen {
			inc.TransactionAmount = p.TransactionAmount
			inc.TransactionFrozen = true
			return inc, nil
		}
	}
	return m.Create(context.Background(), p)
}

func (m *mockIncidentRepo) Unfreeze(_ context.Context, seniorPhone string) error {
	m.unfrozen = append(m.unfrozen, seniorPhone)
	for _, inc := range m.incidents {
		if inc.SeniorPhone == seniorPhone {
			inc.TransactionFrozen = false
		}
	}
	return nil
}

func (m *mockIncidentRepo) Resolve(_ context.Context, id int64, resolvedBy string) (*domain.Incident, error) {
	inc := m.incidents[id]
	if inc == nil {
		return nil, nil
	}
	inc.Status = domain.IncidentResolved
	inc.ResolvedBy = resolvedBy
	return inc, nil
}

func (m *mockIncidentRepo) Escalate(_ context.Context, id int64) (*domain.Incident, error) {
	m.escalated = append(m.escalated, id)
	inc := m.incidents[id]
	if inc == nil {
		return nil, nil
	}
	inc.Status = domain.IncidentEscalated
	return inc, nil
}

func (m *mockIncidentRepo) CountByGuardian(_ context.Context, guardianPhone string, status *domain.IncidentStatus, frozenOnly bool) (int64, error) {
	var n int64
	for _, inc := range m.incidents {
		if inc.GuardianPhone != guardianPhone {
			continue
		}
		if status != nil && inc.Status != *status {
			continue
		}
		if frozenOnly && !inc.TransactionFrozen {
			continue
		}
		n++
	}
	return n, nil
}

type mockOracle struct {
	verdict  oracle.Verdict
	lastText string
}

func (m *mockOracle) Analyze(_ context.Context, text string) oracle.Verdict {
	m.lastText = text
	return m.verdict
}

type emitted struct {
	room    string
	event   string
	payload interface{}
}

type mockEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (m *mockEmitter) EmitToGuardian(guardianPhone, event string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, emitted{room: "guardian:" + guardianPhone, event: event, payload: payload})
}

func (m *mockEmitter) EmitToSenior(seniorPhone, event string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, emitted{room: "senior:" + seniorPhone, event: event, payload: payload})
}

func (m *mockEmitter) byEvent(event string) []emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []emitted
	for _, e := range m.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type published struct {
	subject string
	data    interface{}
}

type mockBus struct {
	mu         sync.Mutex
	messages   []published
	publishErr error
}

func (m *mockBus) Publish(_ context.Context, subject string, data interface{}) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, published{subject: subject, data: data})
	return nil
}

func (m *mockBus) Close() error { return nil }

func (m *mockBus) bySubject(subject string) []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []published
	for _, p := range m.messages {
		if p.subject == subject {
			out = append(out, p)
		}
	}
	return out
}

var errBoom = fmt.Errorf("boom")
