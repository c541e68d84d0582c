package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"campusmarket/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestChatRepository_GetOrCreateConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("Existing Conversation", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChatRepository(db)

		rows := sqlmock.NewRows([]string{"id", "listing_id", "buyer_id", "seller_id"}).
			AddRow(5, 10, 2, 3)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnRows(rows)

		conv, created, err := repo.GetOrCreateConversation(ctx, 10, 2, 3)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, uint(5), conv.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Creates When Missing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChatRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "conversations"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))
		mock.ExpectCommit()

		conv, created, err := repo.GetOrCreateConversation(ctx, 10, 2, 3)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, uint(6), conv.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Insert Falls Back To Winner Row", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChatRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "conversations"`)).
			WillReturnError(errors.New(`duplicate key value violates unique constraint "idx_conv_triple"`))
		mock.ExpectRollback()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "listing_id", "buyer_id", "seller_id"}).
				AddRow(7, 10, 2, 3))

		conv, created, err := repo.GetOrCreateConversation(ctx, 10, 2, 3)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, uint(7), conv.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChatRepository_CreateMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Buyer Message Increments Seller Unread", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChatRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "listing_id", "buyer_id", "seller_id"}).
				AddRow(5, 10, 2, 3))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "messages"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "conversations" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		msg := &models.Message{ConversationID: 5, SenderID: 2, Content: "is this still available?"}
		err := repo.CreateMessage(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, uint(100), msg.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Conversation", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChatRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectRollback()

		err := repo.CreateMessage(ctx, &models.Message{ConversationID: 404, SenderID: 2, Content: "hi"})
		assert.True(t, models.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChatRepository_MarkConversationRead(t *testing.T) {
	ctx := context.Background()

	convRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "listing_id", "buyer_id", "seller_id"}).
			AddRow(5, 10, 2, 3)
	}

	t.Run("Stamps Counterpart Messages", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChatRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnRows(convRows())
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "messages" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "conversations" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.MarkConversationRead(ctx, 5, 2)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second Call Is A No-Op", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChatRepository(db)

		// First call stamps three messages and zeroes the counter.
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnRows(convRows())
		mock.ExpectExec(regexp.QuoteMeta(`read_at IS NULL`)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "conversations" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Everything already carries read_at, so the filtered UPDATE matches
		// zero rows; the counter write sets an already-zero column to zero.
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "conversations" WHERE`)).
			WillReturnRows(convRows())
		mock.ExpectExec(regexp.QuoteMeta(`read_at IS NULL`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "conversations" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.MarkConversationRead(ctx, 5, 2))
		require.NoError(t, repo.MarkConversationRead(ctx, 5, 2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTruncatePreview(t *testing.T) {
	assert.Equal(t, "short", truncatePreview("short"))

	long := ""
	for i := 0; i < 150; i++ {
		long += "a"
	}
	got := truncatePreview(long)
	assert.Len(t, []rune(got), 100)

	// Runes, not bytes: multibyte content must not be split mid-character.
	turkish := ""
	for i := 0; i < 120; i++ {
		turkish += "ğ"
	}
	got = truncatePreview(turkish)
	assert.Len(t, []rune(got), 100)
}
