package startpoint

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/cyber-dojo/commander/internal/domain/startpoint"
	"github.com/cyber-dojo/commander/internal/service/common"
)

// ErrUnexpectedType means a start-point's manifest declares a different type than required.
var ErrUnexpectedType = errors.New("unexpected start-point type")

// RequireType checks that name is a start-point of type want.
// Gate failures and type mismatches are printed as FAILED lines and returned as exit errors.
func RequireType(ctx context.Context, env *common.Env, name string, want domain.Type) error {
	inspector, _ := newInspector(env)

	if _, err := inspector.Require(ctx, name); err != nil {
		return report(env, err)
	}

	got, err := inspector.Type(ctx, name)
	if err != nil {
		return err
	}

	if got != want {
		err = fmt.Errorf("the type of %s is %s (expecting %s): %w", name, got, want, ErrUnexpectedType)
		_ = common.Fail(env.Stderr, "the type of %s is %s (expecting %s)", name, got, want)

		return errors.Join(common.Failed(), err)
	}

	return nil
}

func asVolumeError(err error) (*VolumeError, bool) {
	var ve *VolumeError
	if errors.As(err, &ve) {
		return ve, true
	}

	return nil, false
}
