package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn

	mu          sync.Mutex
	Batches     []*MockBatch
	FailPrepare bool
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPrepare {
		return nil, errors.New("prepare failed")
	}
	batch := &MockBatch{Query: query}
	m.Batches = append(m.Batches, batch)
	return batch, nil
}

func (m *MockClickHouseConn) AppendedRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.Batches {
		total += len(b.Appended)
	}
	return total
}

func (m *MockClickHouseConn) SentBatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := 0
	for _, b := range m.Batches {
		if b.Sent {
			sent++
		}
	}
	return sent
}

type MockBatch struct {
	mu       sync.Mutex
	Query    string
	Appended [][]interface{}
	Sent     bool
	SendErr  error
}

func (m *MockBatch) IsSent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sent
}

func (m *MockBatch) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Appended)
}

func (m *MockBatch) Append(v ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Appended = append(m.Appended, v)
	return nil
}

func (m *MockBatch) AppendStruct(v interface{}) error {
	return nil
}

func (m *MockBatch) Column(int) driver.BatchColumn {
	return nil
}

func (m *MockBatch) Send() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = true
	return nil
}

func (m *MockBatch) Flush() error {
	return nil
}

func (m *MockBatch) Abort() error {
	return nil
}
