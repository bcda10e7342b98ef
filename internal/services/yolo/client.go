package yolo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"logicmate/internal/config"
	"logicmate/internal/services"
)

// ProgressUpdate captures trainer epoch progress parsed from stdout.
type ProgressUpdate struct {
	Epoch       int
	TotalEpochs int
	Message     string
}

// Request describes one fine-tuning invocation. Pointer-typed fields are
// optional hyperparameters: nil means the argument is omitted entirely and
// the trainer applies its own default.
type Request struct {
	DataPath    string
	WeightsPath string
	RunsDir     string
	RunName     string

	Epochs    int
	Batch     int
	ImageSize int
	Optimizer string
	Device    string

	Patience     *int
	WeightDecay  *float64
	Momentum     *float64
	WarmupEpochs *float64
	Mixup        *float64
	Mosaic       *float64
	CopyPaste    *float64
}

// Trainer defines the behaviour required by the training handler.
type Trainer interface {
	Train(ctx context.Context, req Request, progress func(ProgressUpdate)) (string, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the external trainer CLI.
type Client struct {
	binary       string
	trainTimeout time.Duration
	exec         Executor
}

// New constructs a trainer client.
func New(binary string, trainTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("trainer binary required")
	}
	client := &Client{
		binary:       binary,
		trainTimeout: time.Duration(trainTimeoutSeconds) * time.Second,
		exec:         commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client from the training configuration section.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	return New(cfg.TrainerBinary(), cfg.Training.TrainTimeout, opts...)
}

// RequestFromConfig seeds a Request with the configured training parameters.
// The caller fills in DataPath, RunsDir, and RunName per invocation.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		WeightsPath:  cfg.WeightsPath(),
		Epochs:       cfg.Training.Epochs,
		Batch:        cfg.Training.Batch,
		ImageSize:    cfg.Training.ImageSize,
		Optimizer:    cfg.Training.Optimizer,
		Device:       cfg.Training.Device,
		Patience:     cfg.Training.Patience,
		WeightDecay:  cfg.Training.WeightDecay,
		Momentum:     cfg.Training.Momentum,
		WarmupEpochs: cfg.Training.WarmupEpochs,
		Mixup:        cfg.Training.Mixup,
		Mosaic:       cfg.Training.Mosaic,
		CopyPaste:    cfg.Training.CopyPaste,
	}
}

// Train executes the trainer and returns the path of the best checkpoint.
func (c *Client) Train(ctx context.Context, req Request, progress func(ProgressUpdate)) (string, error) {
	if strings.TrimSpace(req.DataPath) == "" {
		return "", services.Wrap(services.ErrInvalidArgument, "yolo", "train", "data manifest path required", nil)
	}
	if strings.TrimSpace(req.RunsDir) == "" || strings.TrimSpace(req.RunName) == "" {
		return "", services.Wrap(services.ErrInvalidArgument, "yolo", "train", "runs directory and run name required", nil)
	}

	trainCtx := ctx
	if c.trainTimeout > 0 {
		var cancel context.CancelFunc
		trainCtx, cancel = context.WithTimeout(ctx, c.trainTimeout)
		defer cancel()
	}

	args := BuildArgs(req)
	started := time.Now()
	if err := c.exec.Run(trainCtx, c.binary, args, func(line string) {
		if progress == nil {
			return
		}
		if update, ok := parseProgress(line); ok {
			progress(update)
		}
	}); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "yolo", "train",
			fmt.Sprintf("trainer failed after %s", time.Since(started).Round(time.Second)), err)
	}

	best := BestWeightsPath(req.RunsDir, req.RunName)
	if _, err := os.Stat(best); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "yolo", "train",
			fmt.Sprintf("trainer finished but produced no checkpoint at %s", best), err)
	}
	return best, nil
}

// BuildArgs renders the trainer command line. Only configured optional
// hyperparameters appear; the learning rate is pinned so repeated runs on
// small datasets stay stable. Optimizer and device are treated the same
// way: empty or "auto" means "let the trainer decide" and the pair is
// omitted, since auto is the trainer's own default for both.
func BuildArgs(req Request) []string {
	args := []string{
		"detect", "train",
		"data=" + req.DataPath,
		"model=" + req.WeightsPath,
		"epochs=" + strconv.Itoa(req.Epochs),
		"batch=" + strconv.Itoa(req.Batch),
		"imgsz=" + strconv.Itoa(req.ImageSize),
		"lr0=0.001",
	}
	if req.Optimizer != "" && req.Optimizer != "auto" {
		args = append(args, "optimizer="+req.Optimizer)
	}
	if req.Device != "" && req.Device != "auto" {
		args = append(args, "device="+req.Device)
	}
	if req.Patience != nil {
		args = append(args, "patience="+strconv.Itoa(*req.Patience))
	}
	for _, opt := range []struct {
		key   string
		value *float64
	}{
		{"weight_decay", req.WeightDecay},
		{"momentum", req.Momentum},
		{"warmup_epochs", req.WarmupEpochs},
		{"mixup", req.Mixup},
		{"mosaic", req.Mosaic},
		{"copy_paste", req.CopyPaste},
	} {
		if opt.value != nil {
			args = append(args, opt.key+"="+strconv.FormatFloat(*opt.value, 'g', -1, 64))
		}
	}
	args = append(args,
		"project="+req.RunsDir,
		"name="+req.RunName,
		"exist_ok=True",
	)
	return args
}

// RunDir returns the trainer output directory for a named run.
func RunDir(runsDir, runName string) string {
	return filepath.Join(runsDir, runName)
}

// BestWeightsPath returns where the trainer leaves the best checkpoint.
func BestWeightsPath(runsDir, runName string) string {
	return filepath.Join(RunDir(runsDir, runName), "weights", "best.pt")
}

// Trainer epoch lines start with "N/M" after leading whitespace.
var epochPattern = regexp.MustCompile(`^\s*(\d+)/(\d+)\s`)

func parseProgress(line string) (ProgressUpdate, bool) {
	match := epochPattern.FindStringSubmatch(line)
	if match == nil {
		return ProgressUpdate{}, false
	}
	epoch, err := strconv.Atoi(match[1])
	if err != nil {
		return ProgressUpdate{}, false
	}
	total, err := strconv.Atoi(match[2])
	if err != nil || total <= 0 || epoch > total {
		return ProgressUpdate{}, false
	}
	return ProgressUpdate{
		Epoch:       epoch,
		TotalEpochs: total,
		Message:     strings.TrimSpace(line),
	}, true
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	forward := func(line string) {
		if onStdout != nil {
			onStdout(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
