package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{SecretKey: "test-secret", Issuer: "diary-backend", Audience: []string{Audience}, ExpiryTime: time.Hour}
}

func TestJWT_RoundTrip(t *testing.T) {
	// Arrange
	gen, err := NewJWTGenerator(testJWTConfig())
	require.NoError(t, err)
	val, err := NewJWTValidator(testJWTConfig())
	require.NoError(t, err)

	// Act
	token, err := gen.GenerateToken("user-1", "a@example.com", []string{"writer"})
	require.NoError(t, err)
	claims, err := val.ValidateToken("Bearer " + token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, []string{"writer"}, claims.Roles)
}

func TestJWT_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing",
			token:   func(t *testing.T) string { return "  " },
			wantErr: ErrMissingToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				gen, err := NewJWTGenerator(testJWTConfig())
				require.NoError(t, err)
				gen.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
				token, err := gen.GenerateToken("user-1", "", nil)
				require.NoError(t, err)
				return token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				cfg := testJWTConfig()
				cfg.SecretKey = "other"
				gen, err := NewJWTGenerator(cfg)
				require.NoError(t, err)
				token, err := gen.GenerateToken("user-1", "", nil)
				require.NoError(t, err)
				return token
			},
			wantErr: ErrInvalidSignature,
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				cfg := testJWTConfig()
				cfg.Audience = []string{"someone-else"}
				gen, err := NewJWTGenerator(cfg)
				require.NoError(t, err)
				token, err := gen.GenerateToken("user-1", "", nil)
				require.NoError(t, err)
				return token
			},
			wantErr: ErrInvalidClaims,
		},
		{
			name:    "garbage",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, err := NewJWTValidator(testJWTConfig())
			require.NoError(t, err)

			_, err = val.ValidateToken(tt.token(t))

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJWT_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)

	_, err = NewJWTGenerator(JWTConfig{})
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "user-1"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
}

func TestSlidingWindowLimiter(t *testing.T) {
	// Arrange
	now := time.Date(2024, 8, 14, 9, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()
	users := NewUserRateLimiter(l, "ai")

	// Act / Assert
	for i := 0; i < 2; i++ {
		ok, err := users.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := users.Allow(ctx, "user-1")
	assert.False(t, ok, "third call in the window")

	ok, _ = users.Allow(ctx, "user-2")
	assert.True(t, ok, "budgets are per user")

	now = now.Add(61 * time.Second)
	ok, _ = users.Allow(ctx, "user-1")
	assert.True(t, ok, "window slid past the earlier calls")

	require.NoError(t, l.Reset(ctx, "ai:user:user-1"))
	ok, _ = users.Allow(ctx, "user-1")
	assert.True(t, ok)
}

type fakeDynamo struct {
	update  *dynamodb.UpdateItemInput
	out     *dynamodb.UpdateItemOutput
	err     error
	deleted *dynamodb.DeleteItemInput
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.update = in
	return f.out, f.err
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleted = in
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDistributedRateLimiter(t *testing.T) {
	tests := []struct {
		name    string
		out     *dynamodb.UpdateItemOutput
		err     error
		want    bool
		wantErr bool
	}{
		{
			name: "counted under the limit",
			out: &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
				"Count": &types.AttributeValueMemberN{Value: "3"},
			}},
			want: true,
		},
		{
			name: "condition failed means limited",
			err:  &types.ConditionalCheckFailedException{Message: aws.String("limit")},
			want: false,
		},
		{
			name:    "other errors fail open",
			err:     errors.New("timeout"),
			want:    true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := &fakeDynamo{out: tt.out, err: tt.err}
			l := NewDistributedRateLimiter(client, "diary", 5, time.Minute, "AI")
			l.now = func() time.Time { return time.Unix(1723626030, 0) }

			// Act
			ok, err := l.Allow(context.Background(), "user-1")

			// Assert
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantErr, err != nil)
			require.NotNil(t, client.update)
			assert.Equal(t, &types.AttributeValueMemberS{Value: "RATELIMIT#AI#user-1"}, client.update.Key["PK"])
			assert.Equal(t, &types.AttributeValueMemberS{Value: "1723626000"}, client.update.Key["SK"])
		})
	}
}
