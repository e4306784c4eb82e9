package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/metrics"
	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/queue"
)

// Submission is a contact or quote form as posted by the public site.
type Submission struct {
	Name             string              `json:"name" validate:"required,min=2,max=200"`
	FirstName        string              `json:"firstName" validate:"-"`
	LastName         string              `json:"lastName" validate:"-"`
	Email            string              `json:"email" validate:"required,email,max=254"`
	Phone            string              `json:"phone" validate:"omitempty,max=64"`
	ClientType       string              `json:"clientType" validate:"required,oneof=organisatie particulier"`
	OrganizationName string              `json:"organizationName" validate:"required_if=ClientType organisatie,max=255"`
	ProjectLocation  string              `json:"projectLocation" validate:"omitempty,max=255"`
	ProjectType      string              `json:"projectType" validate:"required,oneof=constructief-ontwerp beoordeling-veiligheid projectmanagement inspectie-advies"`
	Message          string              `json:"message" validate:"required,min=10,max=10000"`
	Documents        []model.DocumentRef `json:"documents" validate:"max=10"`
	PrivacyAccepted  bool                `json:"privacyAccepted" validate:"eq=true"`
	Type             string              `json:"type" validate:"omitempty,oneof=quote contact"`

	Website        string `json:"website" validate:"-"` // honeypot
	RecaptchaToken string `json:"recaptchaToken" validate:"-"`
}

// normalize trims every text field and fills Name from first/last name
// for older form variants.
func (s *Submission) normalize() {
	for _, p := range []*string{&s.Name, &s.FirstName, &s.LastName, &s.Email, &s.Phone,
		&s.ClientType, &s.OrganizationName, &s.ProjectLocation, &s.ProjectType, &s.Message, &s.Type} {
		*p = strings.TrimSpace(*p)
	}
	if s.Name == "" {
		s.Name = strings.TrimSpace(s.FirstName + " " + s.LastName)
	}
	s.Email = strings.ToLower(s.Email)
	s.Type = strings.ToLower(s.Type)
	if s.Type == "" {
		s.Type = string(model.KindContact)
	}
	if s.ClientType == string(model.ClientPrivate) {
		s.OrganizationName = ""
	}
}

// InquiryWriter persists an inquiry together with its notification.
type InquiryWriter interface {
	CreateWithNotification(ctx context.Context, in *model.Inquiry) error
}

// EventPublisher announces accepted inquiries on the message bus.
type EventPublisher interface {
	PublishInquiryReceived(ctx context.Context, ev queue.InquiryReceivedEvent) error
}

// Notifier delivers the operator notification for an inquiry.
type Notifier interface {
	Notify(ctx context.Context, in model.Inquiry) error
}

// IntakeService runs the public submission pipeline: honeypot, CAPTCHA,
// spam heuristics, validation, persistence, then best-effort side effects.
type IntakeService struct {
	store     InquiryWriter
	captcha   CaptchaVerifier
	spam      SpamFilter
	notifier  Notifier
	publisher EventPublisher
	validate  *validator.Validate
	strict    bool // production posture: a disabled CAPTCHA is logged as an error
	timeout   time.Duration
	storeWait time.Duration
	log       logger.Logger
	metrics   metrics.Recorder

	wg sync.WaitGroup
}

// IntakeDeps groups IntakeService collaborators.  Captcha, Notifier and
// Publisher may be nil.
type IntakeDeps struct {
	Store      InquiryWriter
	Captcha    CaptchaVerifier
	Notifier   Notifier
	Publisher  EventPublisher
	Production bool
	Log        logger.Logger
	Metrics    metrics.Recorder

	// StoreTimeout bounds the database write.  Zero means 5s.
	StoreTimeout time.Duration
}

// NewIntakeService wires the pipeline from d.
func NewIntakeService(d IntakeDeps) *IntakeService {
	if d.Store == nil {
		panic("nil store passed to NewIntakeService")
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = 5 * time.Second
	}
	s := &IntakeService{
		store:     d.Store,
		captcha:   d.Captcha,
		spam:      DefaultSpamFilter(),
		notifier:  d.Notifier,
		publisher: d.Publisher,
		validate:  newValidator(),
		strict:    d.Production,
		timeout:   30 * time.Second,
		storeWait: d.StoreTimeout,
		log:       d.Log,
		metrics:   d.Metrics,
	}
	// A typed nil pointer inside an interface is still "configured"; unwrap it.
	if isNilInterface(s.captcha) {
		s.captcha = nil
	}
	if isNilInterface(s.notifier) {
		s.notifier = nil
	}
	if isNilInterface(s.publisher) {
		s.publisher = nil
	}
	return s
}

// Submit runs the pipeline for one submission and returns the stored
// inquiry.  Notification problems never surface here.
func (s *IntakeService) Submit(ctx context.Context, sub Submission, remoteIP string) (*model.Inquiry, error) {
	if HoneypotTripped(sub.Website) {
		s.reject("honeypot", remoteIP)
		return nil, errSpam()
	}

	if err := s.checkCaptcha(ctx, sub.RecaptchaToken, remoteIP); err != nil {
		return nil, err
	}

	if s.spam.IsSpam(sub.Message) {
		s.reject("heuristic", remoteIP)
		return nil, errSpam()
	}

	sub.normalize()
	if err := s.validate.Struct(sub); err != nil {
		s.metrics.RecordInquiry("invalid")
		return nil, validationError(err)
	}
	if bad := firstForeignDocument(sub.Documents); bad != "" {
		s.metrics.RecordInquiry("invalid")
		return nil, errValidation("documents", "documents must reference uploaded files")
	}

	in := &model.Inquiry{
		Kind:             model.Kind(sub.Type),
		Name:             sub.Name,
		Email:            sub.Email,
		Phone:            sub.Phone,
		ClientType:       model.ClientType(sub.ClientType),
		OrganizationName: sub.OrganizationName,
		ProjectLocation:  sub.ProjectLocation,
		ProjectType:      model.ProjectType(sub.ProjectType),
		Message:          sub.Message,
		Documents:        sub.Documents,
		PrivacyAccepted:  sub.PrivacyAccepted,
	}
	sctx, cancel := context.WithTimeout(ctx, s.storeWait)
	err := s.store.CreateWithNotification(sctx, in)
	cancel()
	if err != nil {
		s.metrics.RecordInquiry("storage_error")
		s.log.Error("inquiry not stored", logger.Error(err))
		return nil, errStorage("could not store inquiry", err)
	}

	s.metrics.RecordInquiry("accepted")
	s.log.Info("inquiry accepted",
		logger.Uint64("inquiry_id", in.ID), logger.String("type", string(in.Kind)),
		logger.Int("documents", len(in.Documents)))

	s.dispatch(ctx, *in)
	return in, nil
}

// Wait blocks until all in-flight side effects have finished.
func (s *IntakeService) Wait() { s.wg.Wait() }

func (s *IntakeService) checkCaptcha(ctx context.Context, token, remoteIP string) error {
	if s.captcha == nil {
		msg := "CAPTCHA verification skipped: no secret configured"
		if s.strict {
			s.log.Error(msg)
		} else {
			s.log.Warn(msg)
		}
		return nil
	}
	if strings.TrimSpace(token) == "" {
		s.metrics.RecordInquiry("captcha_missing")
		return NewError(CodeCaptchaRequired, "reCAPTCHA token is required", nil)
	}
	vctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.captcha.Verify(vctx, token, remoteIP); err != nil {
		s.metrics.RecordInquiry("captcha_failed")
		if !errors.Is(err, ErrCaptchaRejected) {
			s.log.Warn("CAPTCHA verification unavailable", logger.Error(err))
		}
		return NewError(CodeCaptchaFailed, "reCAPTCHA verification failed. Please try again.", err)
	}
	return nil
}

func (s *IntakeService) reject(reason, remoteIP string) {
	s.metrics.RecordInquiry("spam")
	s.log.Info("inquiry rejected as spam", logger.String("check", reason), logger.String("ip", remoteIP))
}

// dispatch runs the event publish and the operator email after the
// response has been decided.  The request context's values are kept but
// its cancellation is not.
func (s *IntakeService) dispatch(ctx context.Context, in model.Inquiry) {
	if s.publisher == nil && s.notifier == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(bg, s.timeout)
		defer cancel()

		if s.publisher != nil {
			if err := s.publisher.PublishInquiryReceived(ctx, queue.NewInquiryReceivedEvent(in)); err != nil {
				s.metrics.RecordNotificationFailure("event")
				s.log.Warn("inquiry event not published", logger.Uint64("inquiry_id", in.ID), logger.Error(err))
			}
		}
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, in); err != nil {
				s.log.Error("inquiry notification failed",
					logger.String("code", CodeNotificationFailed), logger.Uint64("inquiry_id", in.ID), logger.Error(err))
			}
		}
	}()
}

func firstForeignDocument(docs []model.DocumentRef) string {
	for _, d := range docs {
		if !strings.HasPrefix(d.URL, DocumentURLPrefix) {
			return d.URL
		}
	}
	return ""
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validationError reports the first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errValidation("", "invalid submission")
	}
	fe := verrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required", "required_if":
		msg = field + " is required"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s is too long", field)
	case "email":
		msg = "email address is invalid"
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "eq":
		msg = "privacy policy must be accepted"
	default:
		msg = field + " is invalid"
	}
	return errValidation(field, msg)
}

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
