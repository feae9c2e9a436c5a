package receipt

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:generate mockgen -destination=mock/sink_mock.go -package=mock cafepos/internal/receipt Sink

// Result что сделал приёмник с готовым чеком
type Result struct {
	Path    string `json:"path,omitempty"`
	Printed bool   `json:"printed"`
	// Message текст для пользователя, когда печать не удалась
	Message string `json:"message,omitempty"`
}

// Sink принимает готовый текст чека (файл, принтер, ...)
type Sink interface {
	Emit(ctx context.Context, orderID int64, text string) (Result, error)
}

// Printer отправляет сохранённый файл на печать
type Printer interface {
	Print(ctx context.Context, path string) error
}

// FileSink пишет ticket_<id>.txt в каталог и пытается его напечатать
type FileSink struct {
	dir     string
	printer Printer
	logger  *log.Logger
}

// NewFileSink printer may be nil: the ticket is then only saved.
func NewFileSink(dir string, printer Printer, logger *log.Logger) *FileSink {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &FileSink{dir: dir, printer: printer, logger: logger}
}

func (s *FileSink) Emit(ctx context.Context, orderID int64, text string) (Result, error) {
	path := filepath.Join(s.dir, FileName(orderID))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return Result{}, fmt.Errorf("write ticket: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	res := Result{Path: abs}
	if s.printer == nil {
		res.Message = fmt.Sprintf("Ticket enregistré dans : %s", abs)
		return res, nil
	}
	// printing is best effort: the saved file is the fallback
	if err := s.printer.Print(ctx, abs); err != nil {
		s.logger.Printf("print ticket %d failed: %v", orderID, err)
		res.Message = fmt.Sprintf("Ticket enregistré dans : %s\nVous pouvez l'imprimer manuellement.", abs)
		return res, nil
	}
	res.Printed = true
	return res, nil
}

// CommandPrinter запускает команду печати ОС, например "lp" или "lpr -P cuisine"
type CommandPrinter struct {
	name string
	args []string
}

// NewCommandPrinter returns nil for an empty command line.
func NewCommandPrinter(command string) *CommandPrinter {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	return &CommandPrinter{name: fields[0], args: fields[1:]}
}

func (p *CommandPrinter) Print(ctx context.Context, path string) error {
	args := append(append([]string(nil), p.args...), path)
	out, err := exec.CommandContext(ctx, p.name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", p.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
