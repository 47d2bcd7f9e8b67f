package worker

import (
	"context"
	"log"
	"time"
)

type LogArchiver interface {
	ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionWorker arquiva entradas de log antigas que já têm desfecho.
// Arquivar, nunca apagar: a trilha de auditoria é append-only.
type RetentionWorker struct {
	logs          LogArchiver
	retentionDays int
	tickInterval  time.Duration
}

func NewRetentionWorker(logs LogArchiver, retentionDays int) *RetentionWorker {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &RetentionWorker{
		logs:          logs,
		retentionDays: retentionDays,
		tickInterval:  1 * time.Hour,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	log.Printf("🕒 Retention Worker iniciado (janela de %d dias)", w.retentionDays)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.archiveOldEntries(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Retention Worker encerrado")
			return
		case <-ticker.C:
			w.archiveOldEntries(ctx)
		}
	}
}

func (w *RetentionWorker) archiveOldEntries(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	archived, err := w.logs.ArchiveBefore(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Erro ao arquivar entradas antigas: %v", err)
		return
	}

	if archived > 0 {
		log.Printf("✅ %d entrada(s) de log arquivadas", archived)
	}
}
