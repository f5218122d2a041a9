package notificationservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	tp, err := NewTemplate()
	require.NoError(t, err)

	type payload struct {
		AuthorName    string
		CommenterName string
		BlogTitle     string
		Content       string
		IsReply       bool
	}

	testCases := []struct {
		name         string
		templateName string
		data         any
		wantSubject  string
		expectedErr  bool
	}{
		{
			name:         "comment",
			templateName: commentTemplate,
			data:         payload{AuthorName: "Ada", CommenterName: "Bob", BlogTitle: "Go tips", Content: "Great read"},
			wantSubject:  `New comment on "Go tips"`,
		},
		{
			name:         "reply",
			templateName: commentTemplate,
			data:         payload{AuthorName: "Ada", CommenterName: "Bob", BlogTitle: "Go tips", Content: "Agreed", IsReply: true},
			wantSubject:  `New reply on "Go tips"`,
		},
		{
			name:         "invalid template name",
			templateName: "invalid_template.html",
			expectedErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, p, h, err := tp.ParseTemplate(tc.templateName, tc.data)
			assert.Equal(t, tc.expectedErr, err != nil)

			if err == nil {
				assert.Equal(t, tc.wantSubject, s.String())
				assert.Contains(t, p.String(), "Hi Ada,")
				assert.Contains(t, h.String(), "<strong>Go tips</strong>")
			}
		})
	}
}
