package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func TestTeamRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTeamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `teams`").WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO `team_members`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	team := &models.Team{Name: "Ops", AdminID: 1, InviteCode: "ABCD-EFGH-IJKL"}
	admin := &models.TeamMember{UserID: 1, Role: models.RoleAdmin}

	require.NoError(t, repo.Create(context.Background(), team, admin))
	assert.Equal(t, uint64(9), team.ID)
	assert.Equal(t, uint64(9), admin.TeamID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_Create_RollsBackOnMemberFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTeamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `teams`").WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO `team_members`").WillReturnError(errors.New("duplicate entry"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(),
		&models.Team{Name: "Ops", AdminID: 1, InviteCode: "ABCD-EFGH-IJKL"},
		&models.TeamMember{UserID: 1, Role: models.RoleAdmin},
	)
	assert.ErrorIs(t, err, repository.ErrCreateTeamMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_FindMember_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTeamRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `team_members` WHERE team_id = \\? AND user_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "user_id", "role"}))

	_, err := repo.FindMember(context.Background(), 3, 4)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewUserRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash"}).
			AddRow(5, "ada@example.com", "Ada", "hash"))

	user, err := repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_MembershipsInSQLite(t *testing.T) {
	db := setupTestDB(t)
	teams := repository.NewTeamRepository(db)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	ada := &models.User{Email: "ada@example.com", Name: "Ada", PasswordHash: "x"}
	bob := &models.User{Email: "bob@example.com", Name: "Bob", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, ada))
	require.NoError(t, users.Create(ctx, bob))

	team := &models.Team{Name: "Ops", AdminID: ada.ID, InviteCode: "AAAA-BBBB-CCCC"}
	require.NoError(t, teams.Create(ctx, team, &models.TeamMember{UserID: ada.ID, Role: models.RoleAdmin}))
	require.NoError(t, teams.AddMember(ctx, &models.TeamMember{TeamID: team.ID, UserID: bob.ID, Role: models.RoleMember}))

	members, err := teams.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	memberships, err := teams.ListMembershipsByUserID(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "Ops", memberships[0].Team.Name)

	found, err := teams.FindByInviteCode(ctx, "AAAA-BBBB-CCCC")
	require.NoError(t, err)
	assert.Equal(t, team.ID, found.ID)

	require.NoError(t, teams.RemoveMember(ctx, team.ID, bob.ID))
	_, err = teams.FindMember(ctx, team.ID, bob.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
