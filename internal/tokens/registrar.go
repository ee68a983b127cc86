package tokens

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/pkg/enums"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/logger"
)

// RegistrarState tracks where a device sits in the registration lifecycle.
type RegistrarState string

const (
	StateUninitialized    RegistrarState = "uninitialized"
	StateUnsupported      RegistrarState = "unsupported"
	StatePermissionDenied RegistrarState = "permission_denied"
	StateInitialized      RegistrarState = "initialized"
)

// PermissionStatus is the tri-state outcome of a notification permission check.
type PermissionStatus string

const (
	PermissionUndetermined PermissionStatus = "undetermined"
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
)

// DeviceInfo describes the device the registrar runs on.
type DeviceInfo interface {
	IsPhysicalDevice() bool
	Platform() enums.Platform
	Model() string
	OSVersion() string
	Timezone() string
}

// PermissionPrompter checks and requests notification permission.
type PermissionPrompter interface {
	Status(ctx context.Context) (PermissionStatus, error)
	Request(ctx context.Context) (PermissionStatus, error)
}

// TokenSource mints a provider push token for this device.
type TokenSource interface {
	PushToken(ctx context.Context) (string, error)
}

// Registrar drives one device through the registration lifecycle. Initialize
// is idempotent: once a terminal state is reached, later calls return the
// prior outcome without re-prompting. Reset returns to uninitialized so the
// whole flow can run again (e.g. after the user changes OS settings).
type Registrar struct {
	mu sync.Mutex

	device      DeviceInfo
	permissions PermissionPrompter
	source      TokenSource
	svc         Service
	logg        *logger.Logger

	state RegistrarState
	token string
}

// RegistrarParams groups registrar dependencies.
type RegistrarParams struct {
	Device      DeviceInfo
	Permissions PermissionPrompter
	Source      TokenSource
	Service     Service
	Logg        *logger.Logger
}

// NewRegistrar validates dependencies and starts in the uninitialized state.
func NewRegistrar(params RegistrarParams) (*Registrar, error) {
	if params.Device == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "device info required")
	}
	if params.Permissions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "permission prompter required")
	}
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "token source required")
	}
	if params.Service == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "token service required")
	}
	if params.Logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Registrar{
		device:      params.Device,
		permissions: params.Permissions,
		source:      params.Source,
		svc:         params.Service,
		logg:        params.Logg,
		state:       StateUninitialized,
	}, nil
}

// State returns the current lifecycle state.
func (r *Registrar) State() RegistrarState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Token returns the registered push token, empty unless initialized.
func (r *Registrar) Token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateInitialized {
		return ""
	}
	return r.token
}

// Initialize runs the full registration flow for the given user. Terminal
// states short-circuit; permission_denied is re-enterable because the user
// may have granted permission in OS settings since the last attempt.
func (r *Registrar) Initialize(ctx context.Context, userID uuid.UUID) (RegistrarState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateInitialized, StateUnsupported:
		return r.state, nil
	}

	if !r.device.IsPhysicalDevice() {
		r.state = StateUnsupported
		r.logg.Info(ctx, "push registration unsupported on this device")
		return r.state, nil
	}

	status, err := r.ensurePermission(ctx)
	if err != nil {
		return r.state, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking notification permission")
	}
	if status != PermissionGranted {
		r.state = StatePermissionDenied
		r.logg.Info(ctx, "notification permission denied")
		return r.state, nil
	}

	token, err := r.source.PushToken(ctx)
	if err != nil {
		return r.state, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "minting push token")
	}

	tz := r.device.Timezone()
	model := r.device.Model()
	osVersion := r.device.OSVersion()
	_, err = r.svc.Register(ctx, RegisterParams{
		UserID:      userID,
		Platform:    r.device.Platform(),
		Token:       token,
		DeviceModel: optional(model),
		OSVersion:   optional(osVersion),
		Timezone:    optional(tz),
	})
	if err != nil {
		return r.state, err
	}

	r.state = StateInitialized
	r.token = token
	return r.state, nil
}

// RequestPermissions re-runs the permission prompt without the rest of the
// flow. Useful from a settings screen after an earlier denial.
func (r *Registrar) RequestPermissions(ctx context.Context) (PermissionStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, err := r.permissions.Request(ctx)
	if err != nil {
		return PermissionUndetermined, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "requesting notification permission")
	}
	if status != PermissionGranted && r.state == StateUninitialized {
		r.state = StatePermissionDenied
	}
	return status, nil
}

// Reset returns the registrar to uninitialized and drops the cached token.
func (r *Registrar) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateUninitialized
	r.token = ""
}

// ensurePermission requests permission only when the status is undetermined;
// a hard denial is respected without re-prompting.
func (r *Registrar) ensurePermission(ctx context.Context) (PermissionStatus, error) {
	status, err := r.permissions.Status(ctx)
	if err != nil {
		return PermissionUndetermined, err
	}
	if status == PermissionUndetermined {
		return r.permissions.Request(ctx)
	}
	return status, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
