// This file defines the vault: optional at-rest encryption of everything in
// the metadata table, unlocked by a passphrase.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/questkeeper/internal/common"
	"github.com/dmitrijs2005/questkeeper/internal/cryptox"
	"github.com/dmitrijs2005/questkeeper/internal/dbx"
	"github.com/dmitrijs2005/questkeeper/internal/repositories/metadata"
)

const (
	saltKey     = "vault.salt"
	verifierKey = "vault.verifier"
)

// VaultService guards the metadata table with a passphrase.
//
// Contract:
//   - Unlock: initialise the vault on first use, otherwise verify the
//     passphrase. Returns the master key.
//   - EnsurePlain: fail with common.ErrVaultRequired when the database is
//     already sealed.
//   - Repository: wrap the database in a repository that seals values with
//     the given key.
type VaultService interface {
	Unlock(ctx context.Context, passphrase []byte) ([]byte, error)
	EnsurePlain(ctx context.Context) error
	Repository(key []byte) metadata.Repository
}

type vaultService struct {
	db *sql.DB
}

func NewVaultService(db *sql.DB) VaultService {
	return &vaultService{db: db}
}

func (v *vaultService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(v.db)
}

func (v *vaultService) Repository(key []byte) metadata.Repository {
	return metadata.NewSealedRepository(v.getMetadataRepo(), key)
}

func (v *vaultService) EnsurePlain(ctx context.Context) error {
	salt, err := v.getMetadataRepo().Get(ctx, saltKey)
	if err != nil {
		return err
	}
	if salt != nil {
		return common.ErrVaultRequired
	}
	return nil
}

// Unlock derives the master key from passphrase. On the first call for a
// database it stores a fresh salt and verifier and seals every value that
// is already there, all in one transaction. Later calls compare verifiers
// and return common.ErrorUnauthorized on mismatch.
func (v *vaultService) Unlock(ctx context.Context, passphrase []byte) ([]byte, error) {
	repo := v.getMetadataRepo()

	savedSalt, err := repo.Get(ctx, saltKey)
	if err != nil {
		return nil, err
	}
	if savedSalt == nil {
		return v.initialize(ctx, passphrase)
	}

	savedVerifier, err := repo.Get(ctx, verifierKey)
	if err != nil {
		return nil, err
	}

	masterKeyCandidate := cryptox.DeriveMasterKey(passphrase, savedSalt)
	verifierCandidate := cryptox.MakeVerifier(masterKeyCandidate)

	if subtle.ConstantTimeCompare(savedVerifier, verifierCandidate) == 0 {
		common.WipeByteArray(masterKeyCandidate)
		return nil, common.ErrorUnauthorized
	}
	return masterKeyCandidate, nil
}

func (v *vaultService) initialize(ctx context.Context, passphrase []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveMasterKey(passphrase, salt)
	verifier := cryptox.MakeVerifier(key)

	err := dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		plain := metadata.NewSQLiteRepository(tx)
		sealed := metadata.NewSealedRepository(plain, key)

		existing, err := plain.List(ctx)
		if err != nil {
			return err
		}
		for k, value := range existing {
			if err := sealed.Set(ctx, k, value); err != nil {
				return err
			}
		}

		if err := plain.Set(ctx, saltKey, salt); err != nil {
			return err
		}
		return plain.Set(ctx, verifierKey, verifier)
	})
	if err != nil {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("failed to initialize vault: %w", err)
	}
	return key, nil
}
