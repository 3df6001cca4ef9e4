package form

import (
	"fmt"
	"sync"

	"github.com/mahadevaaya/registration-flow/internal/models"
	"github.com/mahadevaaya/registration-flow/internal/validation"
)

// Store owns the Applicant Draft and its Error Map for one workflow
// instance. Every mutator revalidates the affected fields synchronously, so
// readers always see a consistent draft/error pair.
type Store struct {
	mu        sync.Mutex
	draft     *models.ApplicantDraft
	errors    models.ErrorMap
	validator *validation.Validator
}

// NewStore creates a store with an empty draft.
func NewStore(v *validation.Validator) *Store {
	if v == nil {
		v = validation.New()
	}
	return &Store{
		draft:     models.NewApplicantDraft(),
		errors:    make(models.ErrorMap),
		validator: v,
	}
}

// Draft returns a snapshot of the current draft.
func (s *Store) Draft() *models.ApplicantDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Errors returns a snapshot of the current error map.
func (s *Store) Errors() models.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.Clone()
}

// FieldError returns the current error for one field.
func (s *Store) FieldError(name string) models.FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[name]
}

// SetField writes a scalar field and revalidates it. Phone and full name
// are sanitized on every write, so invalid characters never reach the
// draft. Changing user_type clears whichever of team_name/date_of_birth no
// longer applies and swaps their validation state.
func (s *Store) SetField(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case models.FieldUserType:
		return s.setUserTypeLocked(value)

	case models.FieldAgreeTerms:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %s expects bool, got %T", name, value)
		}
		s.draft.AgreeTerms = b

	default:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects string, got %T", name, value)
		}
		if err := s.setStringLocked(name, str); err != nil {
			return err
		}
	}

	s.revalidateLocked(name)
	return nil
}

func (s *Store) setStringLocked(name, value string) error {
	d := s.draft
	switch name {
	case models.FieldTeamName:
		d.TeamName = value
	case models.FieldFullName:
		d.FullName = validation.SanitizeFullName(value)
	case models.FieldGender:
		d.Gender = value
	case models.FieldDateOfBirth:
		d.DateOfBirth = value
	case models.FieldEmail:
		d.Email = value
	case models.FieldPassword:
		d.Password = value
	case models.FieldConfirmPassword:
		d.ConfirmPassword = value
	case models.FieldPhone:
		d.Phone = validation.SanitizePhone(value)
	case models.FieldAddress:
		d.Address = value
	case models.FieldCountry:
		d.Country = value
	case models.FieldState:
		d.State = value
	case models.FieldCity:
		d.City = value
	case models.FieldIntroduction:
		d.Introduction = value
	default:
		return fmt.Errorf("unknown field %s", name)
	}
	return nil
}

// setUserTypeLocked implements the user-type switch rule: the field that no
// longer applies is cleared along with its error, and the newly applicable
// field is validated against its current value.
func (s *Store) setUserTypeLocked(value any) error {
	var ut models.UserType
	switch v := value.(type) {
	case models.UserType:
		ut = v
	case string:
		ut = models.UserType(v)
	default:
		return fmt.Errorf("field user_type expects string, got %T", value)
	}
	if ut != models.UserTypeIndividual && ut != models.UserTypeTeam {
		return fmt.Errorf("unknown user_type %q", ut)
	}

	s.draft.UserType = ut
	s.errors.Clear(models.FieldUserType)

	if ut == models.UserTypeTeam {
		s.draft.DateOfBirth = ""
		s.errors.Clear(models.FieldDateOfBirth)
		s.revalidateLocked(models.FieldTeamName)
	} else {
		s.draft.TeamName = ""
		s.errors.Clear(models.FieldTeamName)
		s.revalidateLocked(models.FieldDateOfBirth)
	}
	return nil
}

// SetArrayItem writes one entry of an ordered link list and revalidates the
// list.
func (s *Store) SetArrayItem(listName string, index int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.draft.ListField(listName)
	if !ok {
		return fmt.Errorf("unknown list field %s", listName)
	}
	if index < 0 || index >= len(*list) {
		return fmt.Errorf("%s index %d out of range", listName, index)
	}
	(*list)[index] = value

	s.revalidateLocked(listName)
	return nil
}

// AppendArrayItem adds a blank entry to a link list. The blank entry itself
// is not an error, so the list is not revalidated.
func (s *Store) AppendArrayItem(listName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.draft.ListField(listName)
	if !ok {
		return fmt.Errorf("unknown list field %s", listName)
	}
	*list = append(*list, "")
	return nil
}

// RemoveArrayItem removes an entry from a link list. The last remaining
// entry cannot be removed; the form always shows at least one input row.
func (s *Store) RemoveArrayItem(listName string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.draft.ListField(listName)
	if !ok {
		return fmt.Errorf("unknown list field %s", listName)
	}
	if len(*list) <= 1 {
		return nil
	}
	if index < 0 || index >= len(*list) {
		return fmt.Errorf("%s index %d out of range", listName, index)
	}
	*list = append((*list)[:index], (*list)[index+1:]...)

	s.revalidateLocked(listName)
	return nil
}

// ToggleSetMember adds or removes a talent-scope entry and revalidates the
// set. Only values from models.TalentOptions are accepted.
func (s *Store) ToggleSetMember(setName, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if setName != models.FieldTalentScope {
		return fmt.Errorf("unknown set field %s", setName)
	}

	known := false
	for _, opt := range models.TalentOptions {
		if opt == value {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown talent option %q", value)
	}

	found := -1
	for i, t := range s.draft.TalentScope {
		if t == value {
			found = i
			break
		}
	}
	if found >= 0 {
		s.draft.TalentScope = append(s.draft.TalentScope[:found], s.draft.TalentScope[found+1:]...)
	} else {
		s.draft.TalentScope = append(s.draft.TalentScope, value)
	}

	s.revalidateLocked(models.FieldTalentScope)
	return nil
}

// ValidateAll runs the full rule set, replaces the error map with the
// result, and returns the first failing field in form order ("" if valid).
func (s *Store) ValidateAll() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs, first := s.validator.All(s.draft)
	s.errors = errs
	return first
}

// MergeErrors writes backend-reported field messages into the error map.
func (s *Store) MergeErrors(fieldErrors map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors.Merge(fieldErrors)
}

// SetError writes a single scalar error, typically a backend conflict
// message placed on email or phone.
func (s *Store) SetError(field, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors.Set(field, message)
}

// Reset restores the draft and error map to their initial empty state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = models.NewApplicantDraft()
	s.errors = make(models.ErrorMap)
}

func (s *Store) revalidateLocked(name string) {
	fe := s.validator.Field(name, s.draft)
	if fe.IsZero() {
		s.errors.Clear(name)
	} else {
		s.errors[name] = fe
	}
}
