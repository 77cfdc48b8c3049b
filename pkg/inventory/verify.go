package inventory

import (
	"bytes"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/matzehuels/jarscope/pkg/errors"
)

// maxSignatureSize bounds detached signature files. OpenPGP signatures are
// typically well under 1KB.
const maxSignatureSize = 64 << 10

const armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE-----"

// Verifier checks detached OpenPGP signatures over inventory files.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier with an empty keyring.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// ImportKeyring adds the keys read from r. Armored and binary keyrings are
// accepted.
func (v *Verifier) ImportKeyring(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read keyring")
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse keyring")
		}
	}
	if len(entities) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no keys found in keyring")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// ImportKeyFile adds the keys of the keyring file at path.
func (v *Verifier) ImportKeyFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "keyring %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "open keyring %s", path)
	}
	defer f.Close()
	return v.ImportKeyring(f)
}

// Keys returns the number of imported keys.
func (v *Verifier) Keys() int { return len(v.keyring) }

// Verify checks sig as a detached signature over data. The signature may be
// armored or binary.
func (v *Verifier) Verify(data, sig []byte) error {
	if len(v.keyring) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no verification keys imported")
	}
	if len(sig) > maxSignatureSize {
		return errors.New(errors.ErrCodeSignatureInvalid, "signature exceeds %d bytes", maxSignatureSize)
	}

	var err error
	if bytes.HasPrefix(bytes.TrimSpace(sig), []byte(armoredSignaturePrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeSignatureInvalid, err, "signature verification failed")
	}
	return nil
}

// VerifyFile checks the detached signature at sigPath over the file at path.
func (v *Verifier) VerifyFile(path, sigPath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read signature %s", sigPath)
	}
	return v.Verify(data, sig)
}
