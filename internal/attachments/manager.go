package attachments

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/mahadevaaya/registration-flow/internal/models"
	apperrors "github.com/mahadevaaya/registration-flow/pkg/errors"
	"github.com/mahadevaaya/registration-flow/pkg/logger"
	"github.com/mahadevaaya/registration-flow/pkg/metrics"
	"go.uber.org/zap"
)

// CertificateSlot identifies one of the six named certificate holders.
type CertificateSlot string

const (
	SlotNationalLevel           CertificateSlot = "national_level_certificate"
	SlotInternationalLevelAward CertificateSlot = "international_level_certificate_award"
	SlotStateLevel              CertificateSlot = "state_level_certificate"
	SlotDistrictLevel           CertificateSlot = "district_level_certificate"
	SlotCollegeLevel            CertificateSlot = "college_level_certificate"
	SlotOther                   CertificateSlot = "other_certificate"
)

// Slots lists every certificate slot in display order.
var Slots = []CertificateSlot{
	SlotNationalLevel,
	SlotInternationalLevelAward,
	SlotStateLevel,
	SlotDistrictLevel,
	SlotCollegeLevel,
	SlotOther,
}

var slotLabels = map[CertificateSlot]string{
	SlotNationalLevel:           "National Level Certificate",
	SlotInternationalLevelAward: "International Level Certificate/Award",
	SlotStateLevel:              "State Level Certificate",
	SlotDistrictLevel:           "District Level Certificate",
	SlotCollegeLevel:            "College Level Certificate",
	SlotOther:                   "Other Certificate",
}

// Label returns the human-readable slot name used on the form and the
// confirmation document.
func (s CertificateSlot) Label() string { return slotLabels[s] }

// Valid reports whether s is one of the six known slots.
func (s CertificateSlot) Valid() bool {
	_, ok := slotLabels[s]
	return ok
}

// ParseSlot converts a wire id into a CertificateSlot.
func ParseSlot(id string) (CertificateSlot, error) {
	s := CertificateSlot(id)
	if !s.Valid() {
		return "", fmt.Errorf("unknown certificate slot %q", id)
	}
	return s, nil
}

// File is a selected file as the browser facility hands it over: bytes plus
// the metadata needed to validate before acceptance.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the byte size of the file.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Attachment is an accepted file plus its displayable preview.
type Attachment struct {
	File    File
	Preview string // data URL, ready for in-page display and printing
}

// Rejection messages shown under the specific attachment input.
const (
	MsgProfileImageType = "Please upload a valid image file (JPEG, JPG, PNG, or GIF)"
	MsgProfileImageSize = "Image size should be less than 1MB"
	MsgCertificateType  = "Please upload a valid file (JPEG, JPG, PNG, or PDF)"
	MsgCertificateSize  = "File size should be less than 2MB"
)

var profileImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

var certificateTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// Error is an attachment rejection scoped to one slot.
type Error struct {
	Slot    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Slot, e.Message)
}

// Unwrap ties attachment rejections into the application error taxonomy.
func (e *Error) Unwrap() error { return apperrors.ErrInvalidAttachment }

// Limits carries the acceptance size caps.
type Limits struct {
	ProfileImageMaxBytes int64
	CertificateMaxBytes  int64
}

// DefaultLimits returns the standard 1MiB profile / 2MiB certificate caps.
func DefaultLimits() Limits {
	return Limits{
		ProfileImageMaxBytes: 1 << 20,
		CertificateMaxBytes:  2 << 20,
	}
}

// Manager owns the profile image and the six certificate slots for one
// workflow instance. A rejected file never mutates state: the previously
// accepted attachment, if any, stays in place.
type Manager struct {
	mu sync.Mutex

	limits Limits

	profileImage *Attachment
	certificates map[CertificateSlot]*Attachment
	selected     map[CertificateSlot]bool

	// Per-slot rejection messages, keyed by wire id ("profile_image" or a
	// certificate slot id). Cleared on successful acceptance.
	errors map[string]string
}

// NewManager creates an empty attachment manager.
func NewManager(limits Limits) *Manager {
	if limits.ProfileImageMaxBytes <= 0 || limits.CertificateMaxBytes <= 0 {
		limits = DefaultLimits()
	}
	return &Manager{
		limits:       limits,
		certificates: make(map[CertificateSlot]*Attachment),
		selected:     make(map[CertificateSlot]bool),
		errors:       make(map[string]string),
	}
}

// SetProfileImage validates and accepts a profile image, producing its
// preview. On rejection the previous image is left intact and the slot
// error is set.
func (m *Manager) SetProfileImage(f File) (*Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !profileImageTypes[f.ContentType] {
		return nil, m.rejectLocked(models.FieldProfileImage, MsgProfileImageType)
	}
	if f.Size() > m.limits.ProfileImageMaxBytes {
		return nil, m.rejectLocked(models.FieldProfileImage, MsgProfileImageSize)
	}

	att := &Attachment{File: f, Preview: dataURL(f)}
	m.profileImage = att
	delete(m.errors, models.FieldProfileImage)
	metrics.AttachmentValidations.WithLabelValues(models.FieldProfileImage, "accepted").Inc()

	logger.Debug("Profile image accepted",
		zap.String("content_type", f.ContentType),
		zap.Int64("size_bytes", f.Size()))

	return att, nil
}

// SetCertificate validates and accepts a certificate file for a slot,
// selecting the slot if it was not selected yet.
func (m *Manager) SetCertificate(slot CertificateSlot, f File) (*Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slot.Valid() {
		return nil, fmt.Errorf("unknown certificate slot %q", slot)
	}

	if !certificateTypes[f.ContentType] {
		return nil, m.rejectLocked(string(slot), MsgCertificateType)
	}
	if f.Size() > m.limits.CertificateMaxBytes {
		return nil, m.rejectLocked(string(slot), MsgCertificateSize)
	}

	att := &Attachment{File: f, Preview: dataURL(f)}
	m.certificates[slot] = att
	m.selected[slot] = true
	delete(m.errors, string(slot))
	metrics.AttachmentValidations.WithLabelValues(string(slot), "accepted").Inc()

	logger.Debug("Certificate accepted",
		zap.String("slot", string(slot)),
		zap.String("content_type", f.ContentType),
		zap.Int64("size_bytes", f.Size()))

	return att, nil
}

// ClearProfileImage removes the profile image, its preview and any error.
func (m *Manager) ClearProfileImage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileImage = nil
	delete(m.errors, models.FieldProfileImage)
}

// ClearCertificate removes a slot's file and preview without deselecting
// the slot.
func (m *Manager) ClearCertificate(slot CertificateSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.certificates, slot)
	delete(m.errors, string(slot))
}

// ToggleCertificateSlot flips a slot's selection. Deselecting clears any
// file, preview and error already attached to it.
func (m *Manager) ToggleCertificateSlot(slot CertificateSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected[slot] {
		delete(m.selected, slot)
		delete(m.certificates, slot)
		delete(m.errors, string(slot))
	} else {
		m.selected[slot] = true
	}
}

// ProfileImage returns the accepted profile image, or nil.
func (m *Manager) ProfileImage() *Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profileImage
}

// Certificate returns the accepted file for a slot, or nil.
func (m *Manager) Certificate(slot CertificateSlot) *Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.certificates[slot]
}

// Selected reports whether a slot is currently selected.
func (m *Manager) Selected(slot CertificateSlot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected[slot]
}

// SelectedSlots returns the selected slots in display order.
func (m *Manager) SelectedSlots() []CertificateSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CertificateSlot, 0, len(m.selected))
	for _, s := range Slots {
		if m.selected[s] {
			out = append(out, s)
		}
	}
	return out
}

// Certificates returns every attached certificate keyed by slot, in display
// order, for serialization and the confirmation document.
func (m *Manager) Certificates() map[CertificateSlot]*Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[CertificateSlot]*Attachment, len(m.certificates))
	for slot, att := range m.certificates {
		out[slot] = att
	}
	return out
}

// SlotError returns the current rejection message for a slot id, "" if none.
func (m *Manager) SlotError(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[id]
}

// Reset drops every attachment, preview, selection and error. Previews are
// derived from file bytes held only here, so dropping them releases the
// associated memory.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileImage = nil
	m.certificates = make(map[CertificateSlot]*Attachment)
	m.selected = make(map[CertificateSlot]bool)
	m.errors = make(map[string]string)
}

func (m *Manager) rejectLocked(id, message string) error {
	m.errors[id] = message
	metrics.AttachmentValidations.WithLabelValues(id, "rejected").Inc()
	return &Error{Slot: id, Message: message}
}

// dataURL renders file bytes as a data URL for in-page display and the
// printable confirmation.
func dataURL(f File) string {
	return fmt.Sprintf("data:%s;base64,%s", f.ContentType, base64.StdEncoding.EncodeToString(f.Data))
}
