package main

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/uniclient-go/internal/aws"
	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

func writeJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withRuntime runs fn against a runtime built from the global flags and closes it afterwards.
func withRuntime(c *cli.Context, fn func(rt *runtime) error) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()
	return fn(rt)
}

func (rt *runtime) readTransaction(c *cli.Context) (*types.Transaction, error) {
	return readTransaction(c.String(flagTx), c.App.Reader, rt.client.Registry(), rt.cfg.ChainID)
}

func accountsCommand(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		identity, err := rt.client.Connect(c.Context)
		if err != nil {
			return err
		}
		accounts, err := rt.client.GetAccounts(c.Context)
		if err != nil {
			return err
		}
		return writeJSON(c, map[string]interface{}{
			"connected": identity,
			"accounts":  accounts,
		})
	})
}

func signCommand(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		tx, err := rt.readTransaction(c)
		if err != nil {
			return err
		}
		// The agent only signs for accounts it has reported.
		if _, err := rt.client.GetAccounts(c.Context); err != nil {
			return err
		}
		env, err := rt.client.Sign(c.Context, tx)
		if err != nil {
			return err
		}
		txBytes, err := txcodec.EncodeEnvelopeBase64(env)
		if err != nil {
			return err
		}
		return writeJSON(c, map[string]string{"tx_bytes": txBytes})
	})
}

func simulateCommand(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		tx, err := rt.readTransaction(c)
		if err != nil {
			return err
		}
		gasUsed, err := rt.client.Simulate(c.Context, rt.cfg.RestEndpoint, tx, rt.cfg.BroadcastMode)
		if err != nil {
			return err
		}
		adjustment := c.Float64(flagGasAdjustment)
		if adjustment < 1 {
			return fmt.Errorf("gas adjustment must be at least 1, got %v", adjustment)
		}
		return writeJSON(c, map[string]uint64{
			"gas_used":  gasUsed,
			"gas_limit": uint64(math.Ceil(float64(gasUsed) * adjustment)),
		})
	})
}

func broadcastCommand(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		tx, err := rt.readTransaction(c)
		if err != nil {
			return err
		}
		if _, err := rt.client.GetAccounts(c.Context); err != nil {
			return err
		}
		resp, err := rt.client.SignAndBroadcast(c.Context, rt.cfg.RestEndpoint, tx, rt.cfg.BroadcastMode)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, string(resp.Raw))
		return err
	})
}

func disconnectCommand(c *cli.Context) error {
	return withRuntime(c, func(rt *runtime) error {
		return rt.client.Disconnect(c.Context)
	})
}

func whoamiCommand(c *cli.Context) error {
	awsCfg, err := aws.LoadAWSConfig(c.Context, c.String(flagAWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	identity, err := aws.GetCallerIdentity(c.Context, awsCfg)
	if err != nil {
		return err
	}
	return writeJSON(c, identity)
}
