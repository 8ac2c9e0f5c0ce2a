package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensor_Masks_Word_Keeping_Length(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"badword"}, '*')
	req.NoError(err)

	req.Equal("this ******* stays masked", moderator.Censor("this badword stays masked"))
}

func TestCensor_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"badword"}, '*')
	req.NoError(err)

	req.Equal("*******!", moderator.Censor("BadWord!"))
}

func TestCensor_Catches_Punctuation_Splits(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"badword"}, '*')
	req.NoError(err)

	// The normalized view drops the dot, so the split word still matches
	req.Equal("********", moderator.Censor("bad.word"))
}

func TestCensor_Leaves_Clean_Text_Untouched(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"badword"}, '*')
	req.NoError(err)

	text := "a perfectly fine sentence with @mentions"
	req.Equal(text, moderator.Censor(text))
}

func TestCensor_Multiple_Words(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"foo", "bar"}, '#')
	req.NoError(err)

	req.Equal("### then ###", moderator.Censor("foo then bar"))
}
