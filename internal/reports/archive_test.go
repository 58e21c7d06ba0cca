package reports_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database/models"
	"github.com/hugh/go-attend/internal/reports"
	"github.com/hugh/go-attend/internal/testutil"
	"github.com/hugh/go-attend/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (m *memStore) Put(_ context.Context, key string, body []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
		m.types = make(map[string]string)
	}
	m.objects[key] = body
	m.types[key] = contentType
	return nil
}

type uploadRecorder struct {
	ok, failed int
}

func (r *uploadRecorder) ArchiveUploaded(err error) {
	if err != nil {
		r.failed++
		return
	}
	r.ok++
}

func TestArchiver_Archive(t *testing.T) {
	tc := testutil.NewTestContext(t)
	testutil.CreateTestAttendance(t, tc.DB, tc.Employee, "2025-01-09", models.ChannelQR)
	testutil.CreateTestAttendance(t, tc.DB, tc.OtherEmployee, "2025-01-09", models.ChannelNFC)
	ctx := testutil.TestContext(t)

	identity, recipient, err := crypto.GenerateKey()
	require.NoError(t, err)
	sealer, err := crypto.NewEncryptor(recipient)
	require.NoError(t, err)

	store := &memStore{}
	rec := &uploadRecorder{}
	archiver := reports.NewArchiver(newService(tc.DB), store, sealer, rec, discard())

	key, err := archiver.Archive(ctx, tc.Company.ID, attendance.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "reports/"+tc.Company.ID.String()+"/20250110_090000.csv.age", key)
	assert.Equal(t, "application/octet-stream", store.types[key])
	assert.Equal(t, 1, rec.ok)

	opener, err := crypto.NewEncryptor(identity)
	require.NoError(t, err)
	plaintext, err := opener.Decrypt(store.objects[key])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(plaintext)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "date,employee_id"))
	assert.Contains(t, lines[1], tc.Employee.ID.String())
}

func TestArchiver_Failures(t *testing.T) {
	tc := testutil.NewTestContext(t)
	ctx := testutil.TestContext(t)
	sealer, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	t.Run("unknown company", func(t *testing.T) {
		rec := &uploadRecorder{}
		archiver := reports.NewArchiver(newService(tc.DB), &memStore{}, sealer, rec, discard())
		_, err := archiver.Archive(ctx, uuid.New(), attendance.Filter{})
		assert.Equal(t, reports.ErrCompanyNotFound, err)
		assert.Zero(t, rec.ok+rec.failed)
	})

	t.Run("upload error is recorded", func(t *testing.T) {
		rec := &uploadRecorder{}
		boom := errors.New("bucket unavailable")
		archiver := reports.NewArchiver(newService(tc.DB), &memStore{err: boom}, sealer, rec, discard())
		_, err := archiver.Archive(ctx, tc.Company.ID, attendance.Filter{})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, rec.failed)
	})
}
