package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"txnarrator/internal/model"
	"txnarrator/internal/signature"
)

// Store reads signatures and transactions from Postgres and persists
// rendered descriptions.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadSignatures reads every row of the event signature table.
func (s *Store) LoadSignatures(ctx context.Context) ([]signature.Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT byte_sign, abi, text_sign FROM ethereum.event_signatures`)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	var entries []signature.Entry
	for rows.Next() {
		var byteSign, rawABI, textSign string
		if err := rows.Scan(&byteSign, &rawABI, &textSign); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		entry, err := signature.EntryFromRow(byteSign, rawABI, textSign)
		if err != nil {
			return nil, fmt.Errorf("signature %s: %w", byteSign, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetTx returns a transaction and its logs ordered by log position.
func (s *Store) GetTx(ctx context.Context, hash string) (model.Tx, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))

	var (
		tx     model.Tx
		ts     time.Time
		to     *string
		value  string
		status *int64
	)
	row := s.pool.QueryRow(ctx, `
		SELECT txhash, blknum, block_timestamp, from_address, to_address, value::text, gas, input, receipt_status
		FROM ethereum.txs
		WHERE txhash = $1
	`, hash)
	var blockNumber, gas int64
	if err := row.Scan(&tx.Hash, &blockNumber, &ts, &tx.From, &to, &value, &gas, &tx.Input, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tx{}, fmt.Errorf("%w: %s", model.ErrTxNotFound, hash)
		}
		return model.Tx{}, err
	}
	tx.BlockNumber = uint64(blockNumber)
	tx.Gas = uint64(gas)
	tx.Timestamp = ts.UTC()
	if to != nil {
		tx.To = *to
	}
	if status != nil {
		tx.Status = uint64(*status)
	}
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return model.Tx{}, fmt.Errorf("tx %s: invalid value %q", hash, value)
	}
	tx.Value = v

	logs, err := s.txLogs(ctx, hash)
	if err != nil {
		return model.Tx{}, err
	}
	tx.Logs = logs
	return tx, nil
}

func (s *Store) txLogs(ctx context.Context, hash string) ([]model.RawLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT logpos, address, topics, data, blknum
		FROM ethereum.logs
		WHERE txhash = $1
		ORDER BY logpos
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("query logs of %s: %w", hash, err)
	}
	defer rows.Close()

	var logs []model.RawLog
	for rows.Next() {
		var (
			logPos, blockNumber int64
			topics              string
			log                 model.RawLog
		)
		if err := rows.Scan(&logPos, &log.Address, &topics, &log.Data, &blockNumber); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		log.TxHash = hash
		log.LogIndex = uint64(logPos)
		log.BlockNumber = uint64(blockNumber)
		log.Topics = splitTopics(topics)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// splitTopics parses the comma separated topics column.
func splitTopics(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "{}")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if part != "" {
			topics = append(topics, part)
		}
	}
	return topics
}

// UpsertDescriptions inserts or updates rendered descriptions keyed by
// transaction hash and log index.
func (s *Store) UpsertDescriptions(ctx context.Context, descriptions []model.Description) error {
	if len(descriptions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range descriptions {
		batch.Queue(`
			INSERT INTO log_descriptions (
				tx_hash, log_index, block_number, address, signature, status, text, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (tx_hash, log_index)
			DO UPDATE SET
				block_number = EXCLUDED.block_number,
				address = EXCLUDED.address,
				signature = EXCLUDED.signature,
				status = EXCLUDED.status,
				text = EXCLUDED.text,
				updated_at = now()
		`,
			strings.ToLower(d.TxHash),
			int64(d.LogIndex),
			int64(d.BlockNumber),
			strings.ToLower(d.Address),
			d.Signature,
			d.Status,
			d.Text,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range descriptions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutDescriptions implements storage.Storage.
func (s *Store) PutDescriptions(ctx context.Context, descriptions []model.Description) error {
	return s.UpsertDescriptions(ctx, descriptions)
}
