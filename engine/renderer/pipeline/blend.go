package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// BlendState maps a scene blend mode to the color target blend state. BlendingNone disables
// blending and returns nil.
//
// Parameters:
//   - b: the blend mode
//
// Returns:
//   - *wgpu.BlendState: the blend state, or nil for no blending
func BlendState(b scene.Blending) *wgpu.BlendState {
	switch b {
	case scene.BlendingNone:
		return nil
	case scene.BlendingReplace:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorZero,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorZero,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case scene.BlendingAlpha:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}
	// scene.Blending only decodes the three modes above.
	panic(fmt.Sprintf("pipeline: unknown blending %d", int(b)))
}
