package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mahadevaaya/registration-flow/config"
	"github.com/mahadevaaya/registration-flow/internal/attachments"
	"github.com/mahadevaaya/registration-flow/internal/fakebackend"
	"github.com/mahadevaaya/registration-flow/internal/form"
	"github.com/mahadevaaya/registration-flow/internal/models"
	"github.com/mahadevaaya/registration-flow/internal/preview"
	"github.com/mahadevaaya/registration-flow/internal/services"
	"github.com/mahadevaaya/registration-flow/internal/validation"
	"github.com/mahadevaaya/registration-flow/internal/workflow"
	"github.com/mahadevaaya/registration-flow/pkg/httpclient"
	"github.com/mahadevaaya/registration-flow/pkg/logger"
	"github.com/mahadevaaya/registration-flow/pkg/profiling"
	"github.com/mahadevaaya/registration-flow/pkg/tracing"
)

// draftInput is the JSON shape of the -input file.
type draftInput struct {
	UserType         string   `json:"user_type"`
	TeamName         string   `json:"team_name"`
	FullName         string   `json:"full_name"`
	Gender           string   `json:"gender"`
	DateOfBirth      string   `json:"date_of_birth"`
	Email            string   `json:"email"`
	Password         string   `json:"password"`
	ConfirmPassword  string   `json:"confirm_password"`
	Phone            string   `json:"phone"`
	Address          string   `json:"address"`
	Country          string   `json:"country"`
	State            string   `json:"state"`
	City             string   `json:"city"`
	Introduction     string   `json:"introduction"`
	TalentScope      []string `json:"talent_scope"`
	SocialMediaLinks []string `json:"social_media_links"`
	AdditionalLinks  []string `json:"additional_links"`
	PortfolioLinks   []string `json:"portfolio_links"`
	AgreeTerms       bool     `json:"agree_terms"`
}

// certFlags collects repeated -certificate slot=path arguments.
type certFlags map[string]string

func (c certFlags) String() string { return fmt.Sprintf("%v", map[string]string(c)) }

func (c certFlags) Set(value string) error {
	slot, path, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected slot=path, got %q", value)
	}
	c[slot] = path
	return nil
}

func main() {
	inputPath := flag.String("input", "", "path to the draft JSON file")
	profileImagePath := flag.String("profile-image", "", "path to the profile image")
	outPath := flag.String("out", "", "where to write the confirmation document (default derived from the applicant name)")
	useFake := flag.Bool("fake", false, "run against an embedded in-memory backend")
	certs := certFlags{}
	flag.Var(certs, "certificate", "certificate as slot=path, repeatable")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: register -input draft.json [-profile-image path] [-certificate slot=path] [-out preview.html] [-fake]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.App.Env,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.App.Env,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	profilerStop, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.App.Env,
	)
	if err != nil {
		logger.Warn("Profiler not started", zap.Error(err))
	} else {
		defer profilerStop()
	}

	if *useFake {
		const fakeAddr = "127.0.0.1:8471"
		fake := fakebackend.NewServer()
		go func() {
			if err := fake.Run(fakeAddr); err != nil && err != http.ErrServerClosed {
				logger.Fatal("Fake backend failed", zap.Error(err))
			}
		}()
		cfg.Backend.BaseURL = "http://" + fakeAddr
		logger.Info("Using embedded fake backend", zap.String("addr", fakeAddr))
	}

	validator := validation.New()
	store := form.NewStore(validator)
	atts := attachments.NewManager(attachments.Limits{
		ProfileImageMaxBytes: cfg.Attachments.ProfileImageMaxBytes,
		CertificateMaxBytes:  cfg.Attachments.CertificateMaxBytes,
	})
	client := httpclient.NewClientWithTimeout(cfg.Backend.SubmitTimeout)
	api := services.NewSubmissionService(cfg, client)

	wf := workflow.New(workflow.Deps{
		Store:          store,
		Attachments:    atts,
		API:            api,
		Validator:      validator,
		ResendCooldown: cfg.Verification.ResendCooldown,
	})

	if err := fillDraft(store, *inputPath); err != nil {
		logger.Fatal("Failed to load draft", zap.Error(err))
	}
	if err := loadAttachments(atts, *profileImagePath, certs); err != nil {
		logger.Fatal("Failed to load attachments", zap.Error(err))
	}

	ctx := context.Background()
	if err := run(ctx, wf, *outPath); err != nil {
		logger.Fatal("Registration failed", zap.Error(err))
	}
}

func run(ctx context.Context, wf *workflow.Workflow, outPath string) error {
	outcome, err := wf.Submit(ctx)
	if err != nil {
		printFieldErrors(wf)
		return err
	}
	if wf.CurrentStage() != workflow.StageVerification {
		printFieldErrors(wf)
		if alert := wf.Alert(); alert != "" {
			return fmt.Errorf("submission rejected: %s", alert)
		}
		return fmt.Errorf("submission rejected: %s", outcome.Message)
	}

	if notice := wf.Notice(); notice != "" {
		fmt.Println(notice)
	}
	fmt.Printf("A verification code was sent to %s.\n", wf.RegisteredEmail())

	scanner := bufio.NewScanner(os.Stdin)
	for wf.CurrentStage() == workflow.StageVerification {
		fmt.Print("Enter the 6-digit code (or \"resend\"): ")
		if !scanner.Scan() {
			return fmt.Errorf("input closed before verification completed")
		}
		line := strings.TrimSpace(scanner.Text())

		if strings.EqualFold(line, "resend") {
			if _, err := wf.Resend(ctx); err != nil {
				fmt.Println(err)
				continue
			}
			if notice := wf.Notice(); notice != "" {
				fmt.Println(notice)
			}
			continue
		}

		if _, err := wf.Verify(ctx, line); err != nil {
			fmt.Println(err)
			continue
		}
		if alert := wf.Alert(); alert != "" {
			fmt.Println(alert)
		}
	}

	return writeConfirmation(wf, outPath)
}

func writeConfirmation(wf *workflow.Workflow, outPath string) error {
	draft := wf.Store().Draft()
	if outPath == "" {
		outPath = preview.Filename(draft.FullName, time.Now()) + ".html"
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer f.Close()

	data := preview.Build(draft, wf.Attachments(), wf.UserID(), true, wf.Notice())
	if err := preview.Render(f, data); err != nil {
		return fmt.Errorf("failed to render confirmation: %w", err)
	}

	fmt.Printf("Email verified. Confirmation written to %s\n", outPath)
	if id := wf.UserID(); id != "" {
		fmt.Printf("Registration ID: %s\n", id)
	}
	return nil
}

func fillDraft(store *form.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var in draftInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("invalid draft JSON: %w", err)
	}

	scalars := map[string]string{
		models.FieldUserType:        in.UserType,
		models.FieldTeamName:        in.TeamName,
		models.FieldFullName:        in.FullName,
		models.FieldGender:          in.Gender,
		models.FieldDateOfBirth:     in.DateOfBirth,
		models.FieldEmail:           in.Email,
		models.FieldPassword:        in.Password,
		models.FieldConfirmPassword: in.ConfirmPassword,
		models.FieldPhone:           in.Phone,
		models.FieldAddress:         in.Address,
		models.FieldCountry:         in.Country,
		models.FieldState:           in.State,
		models.FieldCity:            in.City,
		models.FieldIntroduction:    in.Introduction,
	}
	// user_type first so the team/individual rules apply to later fields
	if in.UserType != "" {
		if err := store.SetField(models.FieldUserType, in.UserType); err != nil {
			return err
		}
	}
	for _, name := range models.FieldOrder {
		value, ok := scalars[name]
		if !ok || value == "" || name == models.FieldUserType {
			continue
		}
		if err := store.SetField(name, value); err != nil {
			return err
		}
	}
	if err := store.SetField(models.FieldAgreeTerms, in.AgreeTerms); err != nil {
		return err
	}

	for _, talent := range in.TalentScope {
		if err := store.ToggleSetMember(models.FieldTalentScope, talent); err != nil {
			return err
		}
	}

	lists := map[string][]string{
		models.FieldSocialMediaLinks: in.SocialMediaLinks,
		models.FieldAdditionalLinks:  in.AdditionalLinks,
		models.FieldPortfolioLinks:   in.PortfolioLinks,
	}
	for name, values := range lists {
		for i, value := range values {
			if i > 0 {
				if err := store.AppendArrayItem(name); err != nil {
					return err
				}
			}
			if err := store.SetArrayItem(name, i, value); err != nil {
				return err
			}
		}
	}

	return nil
}

func loadAttachments(atts *attachments.Manager, profileImagePath string, certs certFlags) error {
	if profileImagePath != "" {
		f, err := readAttachment(profileImagePath)
		if err != nil {
			return err
		}
		if _, err := atts.SetProfileImage(f); err != nil {
			return err
		}
	}

	for slotID, path := range certs {
		slot, err := attachments.ParseSlot(slotID)
		if err != nil {
			return err
		}
		f, err := readAttachment(path)
		if err != nil {
			return err
		}
		if _, err := atts.SetCertificate(slot, f); err != nil {
			return err
		}
	}
	return nil
}

func readAttachment(path string) (attachments.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return attachments.File{}, err
	}
	return attachments.File{
		Name:        path[strings.LastIndex(path, "/")+1:],
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func printFieldErrors(wf *workflow.Workflow) {
	errs := wf.Store().Errors()
	for _, name := range models.FieldOrder {
		fieldErr, ok := errs[name]
		if !ok {
			continue
		}
		if fieldErr.Message != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", name, fieldErr.Message)
		}
		for i, msg := range fieldErr.PerIndex {
			fmt.Fprintf(os.Stderr, "%s[%d]: %s\n", name, i, msg)
		}
	}
}
