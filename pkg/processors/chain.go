package processors

import (
	"context"
	"fmt"
	"time"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// StageStat - статистика выполнения одного процессора
type StageStat struct {
	Name     string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
}

// Dropped возвращает количество удаленных строк
func (s StageStat) Dropped() int {
	return s.RowsIn - s.RowsOut
}

// Observer вызывается после каждого успешно выполненного процессора
type Observer func(stat StageStat)

// Chain представляет цепочку процессоров
type Chain struct {
	processors []Processor
	observer   Observer
	stats      []StageStat
}

// NewChain создает новую цепочку процессоров
func NewChain(processors ...Processor) *Chain {
	return &Chain{
		processors: processors,
	}
}

// WithObserver устанавливает observer для переходов между этапами
func (c *Chain) WithObserver(observer Observer) *Chain {
	c.observer = observer
	return c
}

// Process выполняет все процессоры в цепочке последовательно
func (c *Chain) Process(ctx context.Context, ds *table.Dataset) (*table.Dataset, error) {
	c.stats = c.stats[:0]
	if len(c.processors) == 0 {
		return ds, nil
	}

	result := ds
	for i, proc := range c.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		rowsIn := result.Len()

		var err error
		result, err = proc.Process(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("processor %d (%s) failed: %w", i, proc.Name(), err)
		}

		stat := StageStat{
			Name:     proc.Name(),
			RowsIn:   rowsIn,
			RowsOut:  result.Len(),
			Duration: time.Since(start),
		}
		c.stats = append(c.stats, stat)
		if c.observer != nil {
			c.observer(stat)
		}
	}

	return result, nil
}

// Add добавляет процессор в цепочку
func (c *Chain) Add(processor Processor) {
	c.processors = append(c.processors, processor)
}

// Len возвращает количество процессоров в цепочке
func (c *Chain) Len() int {
	return len(c.processors)
}

// Stats возвращает статистику последнего запуска
func (c *Chain) Stats() []StageStat {
	return append([]StageStat(nil), c.stats...)
}
