package awsKms

import (
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator"
)

// kmsAPI is the subset of the KMS client used for signing keys.
type kmsAPI interface {
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	CreateAlias(ctx context.Context, params *kms.CreateAliasInput, optFns ...func(*kms.Options)) (*kms.CreateAliasOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

type AWSKMSKeyGenerator struct {
	logger      *zap.Logger
	kmsClient   kmsAPI
	awsRegion   string
	environment string
}

var _ keyGenerator.IKeyGenerator = (*AWSKMSKeyGenerator)(nil)

var (
	secp256k1N, _  = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// NewAWSKMSKeyGenerator signs with secp256k1 keys held in AWS KMS. environment
// is only used to tag keys created through GenerateECDSAKey.
func NewAWSKMSKeyGenerator(awsCfg aws.Config, environment string, logger *zap.Logger) *AWSKMSKeyGenerator {
	return newWithClient(kms.NewFromConfig(awsCfg), awsCfg.Region, environment, logger)
}

func newWithClient(client kmsAPI, region, environment string, logger *zap.Logger) *AWSKMSKeyGenerator {
	return &AWSKMSKeyGenerator{
		logger:      logger,
		kmsClient:   client,
		awsRegion:   region,
		environment: environment,
	}
}

func (a *AWSKMSKeyGenerator) GenerateECDSAKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedECDSAKey, error) {
	keyRes, err := a.createSigningKey(ctx, keyName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create ECDSA key %s in region %s", keyName, a.awsRegion)
	}

	if aliasName != "" {
		if err := a.createKeyAlias(ctx, *keyRes.KeyMetadata.KeyId, aliasName); err != nil {
			return nil, errors.Wrapf(err, "failed to create alias %s for key %s in region %s", aliasName, *keyRes.KeyMetadata.KeyId, a.awsRegion)
		}
	}

	return a.GetECDSAKeyById(ctx, *keyRes.KeyMetadata.KeyId)
}

func (a *AWSKMSKeyGenerator) GetECDSAKeyById(ctx context.Context, keyId string) (*keyGenerator.GeneratedECDSAKey, error) {
	pubKey, err := a.publicKey(ctx, keyId)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load public key for key %s in region %s", keyId, a.awsRegion)
	}

	return &keyGenerator.GeneratedECDSAKey{
		PublicKey: pubKey,
		Address:   crypto.PubkeyToAddress(*pubKey).Hex(),
		KeyId:     keyId,
	}, nil
}

func (a *AWSKMSKeyGenerator) createSigningKey(ctx context.Context, keyName string) (*kms.CreateKeyOutput, error) {
	input := &kms.CreateKeyInput{
		KeyUsage:    types.KeyUsageTypeSignVerify,
		KeySpec:     types.KeySpecEccSecgP256k1,
		Description: aws.String(fmt.Sprintf("secp256k1 key for Cosmos transaction signing - %s", keyName)),
		Tags: []types.Tag{
			{TagKey: aws.String("Name"), TagValue: aws.String(keyName)},
			{TagKey: aws.String("Environment"), TagValue: aws.String(a.environment)},
			{TagKey: aws.String("Purpose"), TagValue: aws.String("signing-key")},
			{TagKey: aws.String("Curve"), TagValue: aws.String("secp256k1")},
			{TagKey: aws.String("Application"), TagValue: aws.String("uniclient")},
		},
	}

	result, err := a.kmsClient.CreateKey(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create KMS key: %w", err)
	}
	return result, nil
}

func (a *AWSKMSKeyGenerator) createKeyAlias(ctx context.Context, keyId, aliasName string) error {
	_, err := a.kmsClient.CreateAlias(ctx, &kms.CreateAliasInput{
		AliasName:   aws.String(fmt.Sprintf("alias/%s", aliasName)),
		TargetKeyId: aws.String(keyId),
	})
	if err != nil {
		return fmt.Errorf("failed to create key alias: %w", err)
	}

	a.logger.Sugar().Infow("Created KMS key alias", "alias", aliasName, "keyId", keyId)
	return nil
}

func (a *AWSKMSKeyGenerator) publicKey(ctx context.Context, keyId string) (*cryptoEcdsa.PublicKey, error) {
	result, err := a.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyId)})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}
	return parseECDSAPublicKey(result.PublicKey)
}

// parseECDSAPublicKey parses the DER SubjectPublicKeyInfo returned by KMS.
func parseECDSAPublicKey(derBytes []byte) (*cryptoEcdsa.PublicKey, error) {
	var asn1pubk asn1EcPublicKey
	if _, err := asn1.Unmarshal(derBytes, &asn1pubk); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	return crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// SignDigest asks KMS for a DER signature over digest, canonicalizes it to
// low-S and finds the recovery id that yields the key's public key.
func (a *AWSKMSKeyGenerator) SignDigest(ctx context.Context, keyId string, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be exactly 32 bytes, got %d", len(digest))
	}

	expectedPubKey, err := a.publicKey(ctx, keyId)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load public key for key %s", keyId)
	}

	signOutput, err := a.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(keyId),
		Message:          digest,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      types.MessageTypeDigest,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "kms sign failed for key %s", keyId)
	}

	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(signOutput.Signature, &sigAsn1); err != nil {
		return nil, errors.Wrap(err, "failed to parse DER signature")
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	s := new(big.Int).SetBytes(sigAsn1.S.Bytes)
	if s.Cmp(secp256k1HalfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
	}

	signature := make([]byte, 65)
	r.FillBytes(signature[0:32])
	s.FillBytes(signature[32:64])

	for recoveryId := byte(0); recoveryId < 4; recoveryId++ {
		signature[64] = recoveryId
		recovered, err := crypto.SigToPub(digest, signature)
		if err != nil {
			a.logger.Debug("Public key recovery failed",
				zap.Uint8("recoveryId", recoveryId),
				zap.Error(err))
			continue
		}
		if recovered.X.Cmp(expectedPubKey.X) == 0 && recovered.Y.Cmp(expectedPubKey.Y) == 0 {
			signature[64] = 27 + recoveryId
			return signature, nil
		}
	}

	return nil, fmt.Errorf("could not determine valid recovery ID - signature recovery failed")
}
