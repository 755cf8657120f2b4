package logging

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Stack identifies the tier emitting a log entry.
type Stack string

const (
	StackBackend  Stack = "backend"
	StackFrontend Stack = "frontend"
)

// PackageKey is the field name carrying the emitting package.
const PackageKey = "package"

const (
	PackageCache      = "cache"
	PackageController = "controller"
	PackageCronJob    = "cron_job"
	PackageDomain     = "domain"
	PackageHandler    = "handler"
	PackageRepository = "repository"
	PackageRoute      = "route"

	PackageAPI       = "api"
	PackageComponent = "component"
	PackageHook      = "hook"
	PackagePage      = "page"
	PackageState     = "state"
	PackageStyle     = "style"

	PackageAuth       = "auth"
	PackageConfig     = "config"
	PackageMiddleware = "middleware"
	PackageUtils      = "utils"
)

var (
	backendPackages = []string{
		PackageCache, PackageController, PackageCronJob, PackageDomain,
		PackageHandler, PackageRepository, PackageRoute,
	}
	frontendPackages = []string{
		PackageAPI, PackageComponent, PackageHook, PackagePage, PackageState, PackageStyle,
	}
	commonPackages = []string{PackageAuth, PackageConfig, PackageMiddleware, PackageUtils}

	levels = []string{"debug", "info", "warn", "error", "fatal"}
)

var ErrInvalidEntry = errors.New("invalid log entry")

// Package returns the zap field tagging an entry with its emitting package.
func Package(name string) zap.Field {
	return zap.String(PackageKey, name)
}

// Entry is the wire format accepted by the remote log collector.
type Entry struct {
	Stack   Stack  `json:"stack"`
	Level   string `json:"level"`
	Package string `json:"package"`
	Message string `json:"message"`
}

// Validate checks the entry against the collector's enumerations.
func (e Entry) Validate() error {
	if e.Stack != StackBackend && e.Stack != StackFrontend {
		return fmt.Errorf("%w: stack %q", ErrInvalidEntry, e.Stack)
	}

	if !slices.Contains(levels, e.Level) {
		return fmt.Errorf("%w: level %q", ErrInvalidEntry, e.Level)
	}

	switch {
	case slices.Contains(commonPackages, e.Package):
	case e.Stack == StackBackend && slices.Contains(backendPackages, e.Package):
	case e.Stack == StackFrontend && slices.Contains(frontendPackages, e.Package):
	default:
		return fmt.Errorf("%w: package %q not allowed for stack %q", ErrInvalidEntry, e.Package, e.Stack)
	}

	if strings.TrimSpace(e.Message) == "" {
		return fmt.Errorf("%w: empty message", ErrInvalidEntry)
	}

	return nil
}
