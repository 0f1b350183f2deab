package images

import (
	"context"
	"fmt"
	"time"

	"stagehand/internal/containerizer"
	"stagehand/pkg/logging"
)

// DefaultVerifyTimeout bounds one pull verification.
const DefaultVerifyTimeout = 60 * time.Second

// RuntimeVerifier verifies images through the container runtime. Images
// already present locally are accepted without starting anything; other
// images are pulled by starting a throwaway container, which is stopped
// right away.
type RuntimeVerifier struct {
	runtime containerizer.Runtime
	timeout time.Duration
	logger  *logging.Logger
}

// NewRuntimeVerifier creates a verifier. A zero timeout uses
// DefaultVerifyTimeout.
func NewRuntimeVerifier(runtime containerizer.Runtime, timeout time.Duration, logger *logging.Logger) *RuntimeVerifier {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &RuntimeVerifier{runtime: runtime, timeout: timeout, logger: logger}
}

// Verify implements Verifier.
func (v *RuntimeVerifier) Verify(ctx context.Context, image string) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if inspector, ok := v.runtime.(containerizer.ImageInspector); ok {
		exists, err := inspector.ImageExists(ctx, image)
		if err != nil {
			v.logger.Debug(resolverSubsystem, "Local lookup of %s failed, pulling: %v", image, err)
		} else if exists {
			return nil
		}
	}

	c, err := v.runtime.Run(ctx, containerizer.ContainerSpec{Image: image})
	if err != nil {
		return fmt.Errorf("failed to verify image %s: %w", image, err)
	}

	// The throwaway container is stopped outside the verification deadline.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := c.Stop(stopCtx); err != nil {
		v.logger.Debug(resolverSubsystem, "Failed to stop verification container for %s: %v", image, err)
	}
	return nil
}
