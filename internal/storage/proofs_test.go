package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	put     []string
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = append(f.put, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestKeyRoundTrip(t *testing.T) {
	itemID := uuid.New()
	fileID := uuid.New()

	key := BuildKey(itemID, fileID, "png")
	assert.True(t, strings.HasPrefix(key, "fulfillments/"+itemID.String()+"/"))

	parsed, err := ParseItemID(key)
	require.NoError(t, err)
	assert.Equal(t, itemID, parsed)
}

func TestParseItemIDMalformed(t *testing.T) {
	for _, key := range []string{
		"",
		"fulfillments",
		"fulfillments/not-a-uuid/x.png",
		"other/" + uuid.NewString() + "/x.png",
		"fulfillments/" + uuid.NewString() + "/extra/x.png",
	} {
		if _, err := ParseItemID(key); err == nil {
			t.Errorf("ParseItemID(%q) should fail", key)
		}
	}
}

func TestUploadValidation(t *testing.T) {
	fake := &fakeS3{}
	store := NewProofStore(fake, "fulfillment-proofs", 16, "")

	_, err := store.Upload(context.Background(), uuid.New(), "image/png", make([]byte, 32))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = store.Upload(context.Background(), uuid.New(), "application/pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrBadMIME)

	assert.Empty(t, fake.put, "rejected uploads must not reach the bucket")

	proof, err := store.Upload(context.Background(), uuid.New(), "image/webp", []byte("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(proof.Key, ".webp"))
	assert.Len(t, fake.put, 1)
}

func TestDeleteForeignItem(t *testing.T) {
	fake := &fakeS3{}
	store := NewProofStore(fake, "fulfillment-proofs", 0, "")

	owner := uuid.New()
	key := BuildKey(owner, uuid.New(), "jpg")

	err := store.Delete(context.Background(), key, uuid.New())
	assert.True(t, errors.Is(err, ErrForeignItem))
	assert.Empty(t, fake.deleted)

	require.NoError(t, store.Delete(context.Background(), key, owner))
	assert.Equal(t, []string{key}, fake.deleted)
}

func TestPublicURL(t *testing.T) {
	store := NewProofStore(&fakeS3{}, "fulfillment-proofs", 0, "https://cdn.example.com/")
	key := BuildKey(uuid.New(), uuid.New(), "png")
	assert.Equal(t, "https://cdn.example.com/"+key, store.PublicURL(key))
}
