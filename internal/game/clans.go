package game

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

func (s *Service) CreateClan(ctx context.Context, userID int64, name string) (ClanView, error) {
	var out ClanView
	name = strings.TrimSpace(name)
	if err := validateEntityName(name); err != nil {
		return out, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	var inClan bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM game.clan_members WHERE user_id = $1)
	`, userID).Scan(&inClan); err != nil {
		return out, err
	}
	if inClan {
		return out, ErrAlreadyInClan
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO game.clans (name, creator_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, name, userID).Scan(&out.ID, &out.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return out, ErrClanNameTaken
		}
		return out, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO game.clan_members (user_id, clan_id)
		VALUES ($1, $2)
	`, userID, out.ID); err != nil {
		return out, err
	}
	out.Name = name
	out.CreatorID = userID
	out.MemberCount = 1
	return out, tx.Commit(ctx)
}

func (s *Service) JoinClan(ctx context.Context, userID, clanID int64) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var inClan bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM game.clan_members WHERE user_id = $1)
	`, userID).Scan(&inClan); err != nil {
		return err
	}
	if inClan {
		return ErrAlreadyInClan
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM game.clans WHERE id = $1)
	`, clanID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrClanNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO game.clan_members (user_id, clan_id)
		VALUES ($1, $2)
	`, userID, clanID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) LeaveClan(ctx context.Context, userID int64) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM game.clan_members
		WHERE user_id = $1
	`, userID)
	return err
}

func (s *Service) RenameClan(ctx context.Context, userID int64, newName string) error {
	newName = strings.TrimSpace(newName)
	if err := validateEntityName(newName); err != nil {
		return err
	}
	cmd, err := s.db.Exec(ctx, `
		UPDATE game.clans
		SET name = $1
		WHERE creator_id = $2
	`, newName, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrClanNameTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotClanCreator
	}
	return nil
}

func (s *Service) ListClans(ctx context.Context) ([]ClanView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.name, c.creator_id, c.created_at, COUNT(cm.user_id)
		FROM game.clans c
		LEFT JOIN game.clan_members cm ON cm.clan_id = c.id
		GROUP BY c.id
		ORDER BY COUNT(cm.user_id) DESC, c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ClanView
	for rows.Next() {
		var v ClanView
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatorID, &v.CreatedAt, &v.MemberCount); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Service) ClanMembers(ctx context.Context, clanID int64) ([]ClanMemberView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.id, a.username, (a.id = c.creator_id)
		FROM game.clan_members cm
		JOIN users.accounts a ON a.id = cm.user_id
		JOIN game.clans c ON c.id = cm.clan_id
		WHERE cm.clan_id = $1
		ORDER BY (a.id = c.creator_id) DESC, a.username
	`, clanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ClanMemberView
	for rows.Next() {
		var v ClanMemberView
		if err := rows.Scan(&v.UserID, &v.Username, &v.IsCreator); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
