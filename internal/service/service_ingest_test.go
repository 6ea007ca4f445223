package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-audio-vault/internal/bus"
	"github.com/MKhiriev/go-audio-vault/internal/credentials"
	"github.com/MKhiriev/go-audio-vault/internal/crypto"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/store"
	"github.com/MKhiriev/go-audio-vault/models"
)

const (
	testPrincipal  = "alice@example.com"
	testPassphrase = "hunter2"
)

var testMasterKey = bytes.Repeat([]byte{0x11}, crypto.KeySize)

type ingestFixture struct {
	store   store.ObjectStore
	bus     *bus.MemoryBus
	service IngestService
}

func newIngestFixture(t *testing.T, verifyOuter bool) *ingestFixture {
	t.Helper()

	objects := store.NewMemoryStore("vault-test")
	events := bus.NewMemoryBus()
	provider := credentials.NewStaticProvider(map[string]string{testPrincipal: testPassphrase})

	return &ingestFixture{
		store:   objects,
		bus:     events,
		service: NewIngestService(objects, events, provider, testMasterKey, verifyOuter, logger.Nop()),
	}
}

// clientEncrypt produces the outer layer the way an uploading client would.
func clientEncrypt(t *testing.T, plaintext []byte, passphrase string) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := crypto.EncryptOuterStream(&buf, bytes.NewReader(plaintext), passphrase)
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadInput(body []byte) UploadInput {
	return UploadInput{
		Principal:    testPrincipal,
		Email:        testPrincipal,
		Passphrase:   testPassphrase,
		OriginalName: "take1.wav",
		Body:         bytes.NewReader(body),
	}
}

func TestIngest_HappyPath(t *testing.T) {
	f := newIngestFixture(t, true)
	ctx := context.Background()

	plaintext := bytes.Repeat([]byte{0xAB}, 1<<20)
	resp, err := f.service.Upload(ctx, uploadInput(clientEncrypt(t, plaintext, testPassphrase)))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ObjectID)
	assert.Equal(t, models.StatusVerified, resp.VerificationStatus)

	// Ciphertext: nonce + body + tag.
	ciphertext, err := f.store.GetBytes(ctx, store.CiphertextKey(testPrincipal, resp.ObjectID, "take1.wav"))
	require.NoError(t, err)
	assert.Equal(t, 1<<20+crypto.NonceSize+crypto.TagSize, len(ciphertext))

	// Sidecar fields.
	sidecarJSON, err := f.store.GetBytes(ctx, store.SidecarKey(testPrincipal, resp.ObjectID))
	require.NoError(t, err)
	var sidecar models.Envelope
	require.NoError(t, json.Unmarshal(sidecarJSON, &sidecar))
	assert.Equal(t, models.EnvelopeVersion, sidecar.Version)
	assert.Equal(t, models.EnvelopeAlgorithm, sidecar.Algorithm)
	assert.Equal(t, "take1.wav", sidecar.OriginalFilename)
	assert.Equal(t, int64(1<<20), sidecar.OriginalSize)
	assert.Equal(t, int64(1<<20+crypto.NonceSize+crypto.TagSize), sidecar.EncryptedSize)
	assert.Equal(t, models.StatusVerified, sidecar.VerificationStatus)
	assert.NotZero(t, sidecar.Timestamp)
	assert.Len(t, sidecar.WrappedDataKey, 80)

	// The wrapped key unwraps under the master key, and the data key
	// decrypts the stored ciphertext back to the original plaintext.
	dataKey, err := crypto.UnwrapDataKey(sidecar.WrappedDataKey, testMasterKey)
	require.NoError(t, err)
	var out bytes.Buffer
	_, err = crypto.DecryptInnerStream(&out, bytes.NewReader(ciphertext), dataKey)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(plaintext, out.Bytes()))

	// Exactly one event with the right refs.
	assert.Equal(t, 1, f.bus.Pending())
	sub, err := f.bus.Subscribe("file_processor")
	require.NoError(t, err)
	msgs, err := sub.Fetch(ctx, 1)
	require.NoError(t, err)
	var event models.UploadEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data(), &event))
	assert.NotEmpty(t, event.EventID)
	assert.NotEqual(t, resp.ObjectID, event.EventID)
	assert.Equal(t, testPrincipal, event.Principal)
	assert.Equal(t, resp.ObjectID, event.ObjectID)
	assert.Equal(t, store.CiphertextKey(testPrincipal, resp.ObjectID, "take1.wav"), event.CiphertextRef)
	assert.Equal(t, store.SidecarKey(testPrincipal, resp.ObjectID), event.EnvelopeRef)
	assert.Equal(t, "vault-test", event.Bucket)
	assert.NotZero(t, event.Timestamp)
}

func TestIngest_WireEventFieldNames(t *testing.T) {
	f := newIngestFixture(t, true)
	ctx := context.Background()

	_, err := f.service.Upload(ctx, uploadInput(clientEncrypt(t, []byte("audio"), testPassphrase)))
	require.NoError(t, err)

	sub, err := f.bus.Subscribe("file_processor")
	require.NoError(t, err)
	msgs, err := sub.Fetch(ctx, 1)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data(), &raw))
	for _, field := range []string{"event_id", "email", "file_uuid", "s3_data_key", "s3_metadata_key", "bucket_name", "ts_ms"} {
		assert.Containsf(t, raw, field, "missing wire field %s", field)
	}
}

func TestIngest_AuthFailures(t *testing.T) {
	f := newIngestFixture(t, true)
	body := clientEncrypt(t, []byte("audio"), testPassphrase)

	tests := []struct {
		name   string
		mutate func(*UploadInput)
	}{
		{name: "wrong passphrase", mutate: func(in *UploadInput) { in.Passphrase = "wrong" }},
		{name: "unknown email", mutate: func(in *UploadInput) { in.Email = "mallory@example.com"; in.Principal = "mallory@example.com" }},
		{name: "email differs from session principal", mutate: func(in *UploadInput) { in.Email = "bob@example.com" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := uploadInput(body)
			tt.mutate(&in)

			_, err := f.service.Upload(context.Background(), in)
			assert.True(t, errors.Is(err, ErrAuthFailure))
		})
	}

	// Nothing persisted, nothing published.
	keys, err := f.store.List(context.Background(), "uploads/")
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, 0, f.bus.Pending())
}

func TestIngest_MissingFields(t *testing.T) {
	f := newIngestFixture(t, true)

	in := uploadInput([]byte("x"))
	in.OriginalName = ""
	_, err := f.service.Upload(context.Background(), in)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	in = uploadInput([]byte("x"))
	in.Email = ""
	_, err = f.service.Upload(context.Background(), in)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestIngest_VerificationFailure(t *testing.T) {
	f := newIngestFixture(t, true)

	// The client layer was built with a different passphrase than the one
	// provisioned: credentials check out, the GCM tag does not.
	body := clientEncrypt(t, []byte("audio"), "not-the-provisioned-passphrase")

	// Provision the wrong passphrase as valid so authorize passes.
	provider := credentials.NewStaticProvider(map[string]string{testPrincipal: "not-the-provisioned-passphrase"})
	svc := NewIngestService(f.store, f.bus, provider, testMasterKey, true, logger.Nop())

	corrupted := bytes.Clone(body)
	corrupted[len(corrupted)-1] ^= 0x01

	in := uploadInput(corrupted)
	in.Passphrase = "not-the-provisioned-passphrase"
	_, err := svc.Upload(context.Background(), in)
	assert.True(t, errors.Is(err, ErrVerificationFailed))

	keys, err := f.store.List(context.Background(), "uploads/")
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, 0, f.bus.Pending())
}

func TestIngest_VerificationDisabled(t *testing.T) {
	f := newIngestFixture(t, false)
	ctx := context.Background()

	// With verification off the body is spooled as received; here it is not
	// even outer-layer ciphertext.
	raw := []byte("opaque client bytes")
	resp, err := f.service.Upload(ctx, uploadInput(raw))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotVerified, resp.VerificationStatus)

	sidecarJSON, err := f.store.GetBytes(ctx, store.SidecarKey(testPrincipal, resp.ObjectID))
	require.NoError(t, err)
	var sidecar models.Envelope
	require.NoError(t, json.Unmarshal(sidecarJSON, &sidecar))
	assert.Equal(t, int64(len(raw)), sidecar.OriginalSize)

	// Inner decryption of the stored object returns the raw body.
	ciphertext, err := f.store.GetBytes(ctx, store.CiphertextKey(testPrincipal, resp.ObjectID, "take1.wav"))
	require.NoError(t, err)
	dataKey, err := crypto.UnwrapDataKey(sidecar.WrappedDataKey, testMasterKey)
	require.NoError(t, err)
	var out bytes.Buffer
	_, err = crypto.DecryptInnerStream(&out, bytes.NewReader(ciphertext), dataKey)
	require.NoError(t, err)
	assert.Equal(t, raw, out.Bytes())
}

func TestIngest_FreshDataKeyPerObject(t *testing.T) {
	f := newIngestFixture(t, true)
	ctx := context.Background()

	body := clientEncrypt(t, []byte("audio"), testPassphrase)
	r1, err := f.service.Upload(ctx, uploadInput(body))
	require.NoError(t, err)
	r2, err := f.service.Upload(ctx, uploadInput(body))
	require.NoError(t, err)

	var s1, s2 models.Envelope
	data, err := f.store.GetBytes(ctx, store.SidecarKey(testPrincipal, r1.ObjectID))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &s1))
	data, err = f.store.GetBytes(ctx, store.SidecarKey(testPrincipal, r2.ObjectID))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &s2))

	assert.NotEqual(t, s1.WrappedDataKey, s2.WrappedDataKey)

	k1, err := crypto.UnwrapDataKey(s1.WrappedDataKey, testMasterKey)
	require.NoError(t, err)
	k2, err := crypto.UnwrapDataKey(s2.WrappedDataKey, testMasterKey)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(k1, k2))
}

// failingStore wraps an ObjectStore and fails selected operations.
type failingStore struct {
	store.ObjectStore
	failPutBytes bool
}

func (f *failingStore) PutBytes(ctx context.Context, key, contentType string, data []byte) error {
	if f.failPutBytes {
		return errors.New("sidecar write refused")
	}
	return f.ObjectStore.PutBytes(ctx, key, contentType, data)
}

func TestIngest_SidecarFailureCleansUpCiphertext(t *testing.T) {
	objects := store.NewMemoryStore("vault-test")
	events := bus.NewMemoryBus()
	provider := credentials.NewStaticProvider(map[string]string{testPrincipal: testPassphrase})
	svc := NewIngestService(&failingStore{ObjectStore: objects, failPutBytes: true}, events, provider, testMasterKey, true, logger.Nop())

	_, err := svc.Upload(context.Background(), uploadInput(clientEncrypt(t, []byte("audio"), testPassphrase)))
	assert.Error(t, err)

	keys, listErr := objects.List(context.Background(), "uploads/")
	require.NoError(t, listErr)
	assert.Empty(t, keys, "ciphertext should be removed when the sidecar write fails")
	assert.Equal(t, 0, events.Pending())
}

// cancelingStore honors context cancellation on every call and cancels the
// request context as soon as the ciphertext lands, the way a client
// disconnect surfaces mid-request.
type cancelingStore struct {
	store.ObjectStore
	cancel      context.CancelFunc
	deleteCalls int
}

func (c *cancelingStore) PutStream(ctx context.Context, key string, length int64, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ObjectStore.PutStream(ctx, key, length, r); err != nil {
		return err
	}
	c.cancel()
	return nil
}

func (c *cancelingStore) PutBytes(ctx context.Context, key, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.ObjectStore.PutBytes(ctx, key, contentType, data)
}

func (c *cancelingStore) Delete(ctx context.Context, key string) error {
	c.deleteCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.ObjectStore.Delete(ctx, key)
}

func TestIngest_DisconnectAfterCiphertextCleansUp(t *testing.T) {
	objects := store.NewMemoryStore("vault-test")
	events := bus.NewMemoryBus()
	provider := credentials.NewStaticProvider(map[string]string{testPrincipal: testPassphrase})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wrapped := &cancelingStore{ObjectStore: objects, cancel: cancel}
	svc := NewIngestService(wrapped, events, provider, testMasterKey, true, logger.Nop())

	_, err := svc.Upload(ctx, uploadInput(clientEncrypt(t, []byte("audio"), testPassphrase)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	// The cleanup delete must run despite the dead request context.
	assert.Equal(t, 1, wrapped.deleteCalls)
	keys, listErr := objects.List(context.Background(), "uploads/")
	require.NoError(t, listErr)
	assert.Empty(t, keys, "no sibling survives an aborted ingest")
	assert.Equal(t, 0, events.Pending())
}

// abortingStore persists the object and then reports a mid-stream failure,
// the shape of a connection reset after bytes already landed.
type abortingStore struct {
	store.ObjectStore
}

func (a *abortingStore) PutStream(ctx context.Context, key string, length int64, r io.Reader) error {
	_ = a.ObjectStore.PutStream(ctx, key, length, r)
	return errors.New("connection reset mid-stream")
}

func TestIngest_StreamAbortCleansUpPartialObject(t *testing.T) {
	objects := store.NewMemoryStore("vault-test")
	events := bus.NewMemoryBus()
	provider := credentials.NewStaticProvider(map[string]string{testPrincipal: testPassphrase})
	svc := NewIngestService(&abortingStore{ObjectStore: objects}, events, provider, testMasterKey, true, logger.Nop())

	_, err := svc.Upload(context.Background(), uploadInput(clientEncrypt(t, []byte("audio"), testPassphrase)))
	assert.Error(t, err)

	keys, listErr := objects.List(context.Background(), "uploads/")
	require.NoError(t, listErr)
	assert.Empty(t, keys, "partial ciphertext should be removed after a stream abort")
	assert.Equal(t, 0, events.Pending())
}

func TestIngest_ConcurrentUploadsIsolated(t *testing.T) {
	f := newIngestFixture(t, true)
	ctx := context.Background()

	const uploads = 50
	plaintext := []byte("audio sample")
	body := clientEncrypt(t, plaintext, testPassphrase)

	var wg sync.WaitGroup
	responses := make([]models.UploadResponse, uploads)
	errs := make([]error, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = f.service.Upload(ctx, uploadInput(body))
		}(i)
	}
	wg.Wait()

	ids := make(map[string]struct{}, uploads)
	wrappedKeys := make(map[string]struct{}, uploads)
	for i := 0; i < uploads; i++ {
		require.NoError(t, errs[i])
		ids[responses[i].ObjectID] = struct{}{}

		data, err := f.store.GetBytes(ctx, store.SidecarKey(testPrincipal, responses[i].ObjectID))
		require.NoError(t, err)
		var sidecar models.Envelope
		require.NoError(t, json.Unmarshal(data, &sidecar))
		wrappedKeys[sidecar.WrappedDataKey] = struct{}{}

		// Each object decrypts under its own key: no cross-talk.
		dataKey, err := crypto.UnwrapDataKey(sidecar.WrappedDataKey, testMasterKey)
		require.NoError(t, err)
		ciphertext, err := f.store.GetBytes(ctx, store.CiphertextKey(testPrincipal, responses[i].ObjectID, "take1.wav"))
		require.NoError(t, err)
		var out bytes.Buffer
		_, err = crypto.DecryptInnerStream(&out, bytes.NewReader(ciphertext), dataKey)
		require.NoError(t, err)
		assert.Equal(t, plaintext, out.Bytes())
	}
	assert.Len(t, ids, uploads, "object IDs must be distinct")
	assert.Len(t, wrappedKeys, uploads, "wrapped data keys must be distinct")

	keys, err := f.store.List(ctx, "uploads/")
	require.NoError(t, err)
	assert.Len(t, keys, 2*uploads)
	assert.Equal(t, uploads, f.bus.Pending())
}

func TestIngest_PublishFailureLeavesObjects(t *testing.T) {
	objects := store.NewMemoryStore("vault-test")
	events := bus.NewMemoryBus()
	events.Close()
	provider := credentials.NewStaticProvider(map[string]string{testPrincipal: testPassphrase})
	svc := NewIngestService(objects, events, provider, testMasterKey, true, logger.Nop())

	_, err := svc.Upload(context.Background(), uploadInput(clientEncrypt(t, []byte("audio"), testPassphrase)))
	assert.Error(t, err)

	keys, listErr := objects.List(context.Background(), "uploads/")
	require.NoError(t, listErr)
	assert.Len(t, keys, 2, "ciphertext and sidecar stay for reconciliation")
}
