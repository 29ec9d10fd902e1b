package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/api"
)

// State is the lifecycle of one upload job.
//
//	Idle → Selected → {Invalid | Ready} → Transferring → Confirming → Succeeded
//	                                            └────────────→ Failed
type State int

const (
	StateIdle State = iota
	StateSelected
	StateInvalid
	StateReady
	StateTransferring
	StateConfirming
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelected:
		return "selected"
	case StateInvalid:
		return "invalid"
	case StateReady:
		return "ready"
	case StateTransferring:
		return "transferring"
	case StateConfirming:
		return "confirming"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrBusy rejects a new selection while a job is still in flight. The caller
// must wait or let the current job reach a terminal state; silently
// replacing the job would leave its progress observer racing the new one.
var ErrBusy = errors.New("an upload is already in progress")

// Job is one attempt to transfer a single file. Progress is a percentage in
// [0,100], monotonically non-decreasing for the lifetime of the job.
type Job struct {
	ID        string
	FileName  string
	SizeBytes int64
	State     State
	Progress  float64
	ErrorKind api.ErrorKind
	Message   string
}

func (j Job) Terminal() bool {
	return j.State == StateInvalid || j.State == StateSucceeded || j.State == StateFailed
}

// Limits is the validation policy, sourced from configuration.
type Limits struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

func (l Limits) allowed(ext string) bool {
	for _, e := range l.AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Pipeline validates, transfers, and confirms one file at a time. State
// transitions are driven by the owning event loop; transfer results arriving
// from a superseded job are correlated by job ID and discarded.
type Pipeline struct {
	mu     sync.Mutex
	limits Limits
	job    *Job
}

func NewPipeline(limits Limits) *Pipeline {
	return &Pipeline{limits: limits}
}

// Select starts a new job for the chosen file and validates it immediately.
// An invalid selection is terminal for that job and never reaches the
// network. Returns ErrBusy while a prior job is still transferring.
func (p *Pipeline) Select(fileName string, sizeBytes int64) (Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.job != nil && (p.job.State == StateTransferring || p.job.State == StateConfirming) {
		return *p.job, ErrBusy
	}

	job := &Job{
		ID:        uuid.New().String(),
		FileName:  filepath.Base(fileName),
		SizeBytes: sizeBytes,
		State:     StateSelected,
	}
	p.job = job

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch {
	case sizeBytes > p.limits.MaxFileSizeBytes:
		job.State = StateInvalid
		job.ErrorKind = api.KindValidation
		job.Message = fmt.Sprintf("File is too large (limit %d MB).", p.limits.MaxFileSizeBytes>>20)
	case !p.limits.allowed(ext):
		job.State = StateInvalid
		job.ErrorKind = api.KindValidation
		job.Message = fmt.Sprintf("Unsupported file type %q. Allowed: %s.", ext, strings.Join(p.limits.AllowedExtensions, ", "))
	default:
		job.State = StateReady
	}
	return *job, nil
}

// Begin moves the validated job into Transferring and returns its ID for
// correlating progress and completion events.
func (p *Pipeline) Begin() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job == nil || p.job.State != StateReady {
		return "", fmt.Errorf("no validated file to upload")
	}
	p.job.State = StateTransferring
	p.job.Progress = 0
	return p.job.ID, nil
}

// Progress records a byte-transfer observation for the identified job.
// Stale or regressive updates are dropped. Once all bytes are sent the job
// moves to Confirming while the backend acknowledgement is outstanding.
func (p *Pipeline) Progress(jobID string, ratio float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.owns(jobID) || p.job.State != StateTransferring {
		return
	}
	pct := ratio * 100
	if pct > 100 {
		pct = 100
	}
	if pct <= p.job.Progress {
		return
	}
	p.job.Progress = pct
	if pct >= 100 {
		p.job.State = StateConfirming
	}
}

// Succeed records the backend acknowledgement for the identified job.
func (p *Pipeline) Succeed(jobID string, receipt api.UploadReceipt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.owns(jobID) || (p.job.State != StateTransferring && p.job.State != StateConfirming) {
		return
	}
	p.job.State = StateSucceeded
	p.job.Progress = 100
	p.job.Message = receipt.Message
}

// Fail terminates the identified job with a user-facing message chosen by
// error kind. The pipeline stays usable; the next Select starts over.
func (p *Pipeline) Fail(jobID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.owns(jobID) || (p.job.State != StateTransferring && p.job.State != StateConfirming) {
		return
	}
	p.job.State = StateFailed
	p.job.ErrorKind = api.KindOf(err)
	switch p.job.ErrorKind {
	case api.KindTimeout:
		p.job.Message = "Processing took too long, try a smaller file."
	default:
		if msg := api.ServerMessage(err); msg != "" {
			p.job.Message = msg
		} else {
			p.job.Message = api.Describe(err)
		}
	}
}

// Reset clears the current job, returning the pipeline to Idle. Rejected
// while a transfer is in flight.
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job != nil && (p.job.State == StateTransferring || p.job.State == StateConfirming) {
		return ErrBusy
	}
	p.job = nil
	return nil
}

// Job returns a snapshot of the current job; ok is false when Idle.
func (p *Pipeline) Job() (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job == nil {
		return Job{}, false
	}
	return *p.job, true
}

func (p *Pipeline) owns(jobID string) bool {
	return p.job != nil && p.job.ID == jobID
}
