package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsSurvivesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("rename: %w", ErrAttachmentRename.With(cause))

	assert.ErrorIs(t, err, ErrAttachmentRename)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrAttachmentRecord)
	assert.Equal(t, KindFilesystem, KindOf(err))
	assert.Equal(t, ErrAttachmentRename.Message, MessageOf(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Empty(t, MessageOf(err))
	assert.Equal(t, "internal", KindOf(err).String())
	assert.Equal(t, "not_found", KindNotFound.String())
}
