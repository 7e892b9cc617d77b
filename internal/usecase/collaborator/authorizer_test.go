package collaborator_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-workspace/internal/usecase/collaborator"
)

const companyMail = "owner@acme.test"

type mockCompanyRepository struct {
	companies map[string]*entity.CompanyProfile
}

func (m *mockCompanyRepository) FindByEmail(ctx context.Context, email string) (*entity.CompanyProfile, error) {
	if c, ok := m.companies[email]; ok {
		return c, nil
	}
	return nil, apperror.ErrCompanyNotFound
}

func (m *mockCompanyRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.CompanyProfile, error) {
	return m.FindByEmail(ctx, email)
}

func (m *mockCompanyRepository) Update(ctx context.Context, c *entity.CompanyProfile) error {
	m.companies[c.Email] = c
	return nil
}

type mockEmployeeRepository struct {
	profiles map[uuid.UUID]*entity.EmployeeProfile
	calls    int
}

func (m *mockEmployeeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.EmployeeProfile, error) {
	m.calls++
	var result []*entity.EmployeeProfile
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

type fixture struct {
	companies *mockCompanyRepository
	employees *mockEmployeeRepository
	company   *entity.CompanyProfile
	proposal  *entity.Proposal
	owner     entity.Actor
}

func newFixture() *fixture {
	company := &entity.CompanyProfile{ID: uuid.New(), Email: companyMail}
	return &fixture{
		companies: &mockCompanyRepository{companies: map[string]*entity.CompanyProfile{companyMail: company}},
		employees: &mockEmployeeRepository{profiles: map[uuid.UUID]*entity.EmployeeProfile{}},
		company:   company,
		proposal: &entity.Proposal{
			ID:          uuid.New(),
			Kind:        valueobject.KindRFP,
			Title:       "City Lights RFP",
			CompanyMail: companyMail,
			MaxEditors:  2,
			MaxViewers:  2,
		},
		owner: entity.Actor{ID: uuid.New(), Role: valueobject.RoleCompany, Email: companyMail},
	}
}

// addEmployee регистрирует сотрудника в реестре компании и его профиль.
func (f *fixture) addEmployee(level valueobject.AccessLevel) (employeeID, userID uuid.UUID) {
	employeeID, userID = uuid.New(), uuid.New()
	f.company.Employees = append(f.company.Employees, entity.Employee{EmployeeID: employeeID, Name: "Employee"})
	f.employees.profiles[employeeID] = &entity.EmployeeProfile{
		ID:          employeeID,
		UserID:      userID,
		AccessLevel: level,
		CompanyMail: companyMail,
	}
	return employeeID, userID
}

func (f *fixture) authorizer() *collaborator.Authorizer {
	return collaborator.NewAuthorizer(f.companies, f.employees, collaborator.Policy{ViewersCanEdit: true})
}

func TestAuthorizer_PartitionsByAccessLevel(t *testing.T) {
	f := newFixture()
	e1, u1 := f.addEmployee(valueobject.AccessEditor)
	v1, uv1 := f.addEmployee(valueobject.AccessViewer)
	e2, u2 := f.addEmployee(valueobject.AccessEditor)

	got, err := f.authorizer().Resolve(context.Background(), f.proposal, f.owner,
		[]string{e1.String(), v1.String(), e2.String(), e1.String()})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{u1, u2}, got.Editors)
	assert.Equal(t, []uuid.UUID{uv1}, got.Viewers)
}

func TestAuthorizer_NonOwnerForbidden(t *testing.T) {
	f := newFixture()
	e1, _ := f.addEmployee(valueobject.AccessEditor)

	employee := entity.Actor{ID: uuid.New(), Role: valueobject.RoleEmployee, Email: companyMail}
	_, err := f.authorizer().Resolve(context.Background(), f.proposal, employee, []string{e1.String()})
	assert.True(t, apperror.IsForbidden(err))

	otherCompany := entity.Actor{ID: uuid.New(), Role: valueobject.RoleCompany, Email: "other@acme.test"}
	_, err = f.authorizer().Resolve(context.Background(), f.proposal, otherCompany, []string{e1.String()})
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuthorizer_UnknownEmployeeRejectedBeforeResolution(t *testing.T) {
	f := newFixture()
	e1, _ := f.addEmployee(valueobject.AccessEditor)

	_, err := f.authorizer().Resolve(context.Background(), f.proposal, f.owner,
		[]string{e1.String(), uuid.NewString()})
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidReference))
	assert.Zero(t, f.employees.calls)
}

func TestAuthorizer_MalformedIDRejected(t *testing.T) {
	f := newFixture()
	e1, _ := f.addEmployee(valueobject.AccessEditor)

	_, err := f.authorizer().Resolve(context.Background(), f.proposal, f.owner, []string{e1.String(), "not-a-uuid"})
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidReference))
	assert.Zero(t, f.employees.calls)
}

func TestAuthorizer_MissingProfileIsInvalidReference(t *testing.T) {
	f := newFixture()
	e1, _ := f.addEmployee(valueobject.AccessEditor)
	delete(f.employees.profiles, e1)

	_, err := f.authorizer().Resolve(context.Background(), f.proposal, f.owner, []string{e1.String()})
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidReference))
}

func TestAuthorizer_CapacityExceeded(t *testing.T) {
	f := newFixture()
	var candidates []string
	for i := 0; i < 3; i++ {
		id, _ := f.addEmployee(valueobject.AccessEditor)
		candidates = append(candidates, id.String())
	}

	_, err := f.authorizer().Resolve(context.Background(), f.proposal, f.owner, candidates)
	assert.True(t, apperror.Is(err, apperror.ErrCodeCapacityExceeded))
}

func TestAuthorizer_EmptySetNeverOverCapacity(t *testing.T) {
	f := newFixture()
	f.proposal.MaxEditors = 0
	f.proposal.MaxViewers = 0

	got, err := f.authorizer().Resolve(context.Background(), f.proposal, f.owner, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Editors)
	assert.Empty(t, got.Viewers)
}

func TestAuthorizer_UserWithTwoProfilesStaysDisjoint(t *testing.T) {
	f := newFixture()
	viewerEmp, userID := f.addEmployee(valueobject.AccessViewer)
	editorEmp := uuid.New()
	f.company.Employees = append(f.company.Employees, entity.Employee{EmployeeID: editorEmp})
	f.employees.profiles[editorEmp] = &entity.EmployeeProfile{
		ID: editorEmp, UserID: userID, AccessLevel: valueobject.AccessEditor, CompanyMail: companyMail,
	}

	got, err := f.authorizer().Resolve(context.Background(), f.proposal, f.owner,
		[]string{viewerEmp.String(), editorEmp.String()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, got.Editors)
	assert.Empty(t, got.Viewers)
}

func TestAuthorizer_MissingCompanyIsMissingOwner(t *testing.T) {
	f := newFixture()
	delete(f.companies.companies, companyMail)

	_, err := f.authorizer().Resolve(context.Background(), f.proposal, f.owner, nil)
	assert.True(t, apperror.Is(err, apperror.ErrCodeMissingOwner))
}

func TestPolicy_ViewerWriteAccess(t *testing.T) {
	viewer := uuid.New()
	p := &entity.Proposal{
		CompanyMail:   companyMail,
		Collaborators: entity.Collaborators{Viewers: []uuid.UUID{viewer}},
	}
	actor := entity.Actor{ID: viewer, Role: valueobject.RoleEmployee}

	assert.NoError(t, collaborator.Policy{ViewersCanEdit: true}.CheckMutate(p, actor))
	assert.True(t, apperror.IsForbidden(collaborator.Policy{ViewersCanEdit: false}.CheckMutate(p, actor)))
	assert.NoError(t, collaborator.Policy{}.CheckRead(p, actor))
}
