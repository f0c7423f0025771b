// Package rtview renders a compute-shader ray tracer into a host window.
//
// # Overview
//
// rtview owns a small GPU pipeline that a host UI framework drives once
// per redraw. A compute pass ray-traces into a storage texture, and a
// render pass paints that texture as a full-viewport quad into the
// host's target. Both passes read one shared uniform holding the
// viewport size and camera angle.
//
//	res, err := rtview.NewResources(dev, rtview.WithCapacity(1920, 1080))
//	if err != nil {
//	    return err // no valid rendering path
//	}
//	defer res.Close()
//
//	cb := res.Callback()
//	// per frame, on the host's encoder:
//	cb.Prepare(ctx, enc, rtview.Size{Width: w, Height: h})
//	cb.FinishPrepare(ctx, enc)
//	cb.Paint(pass) // inside the host's render pass
//
// # Frame Phases
//
//   - Prepare clamps the requested size to the texture capacity, uploads
//     the uniform and records the compute dispatch. When the device
//     supports timestamp queries the compute pass writes one timestamp
//     at its beginning and one at its end.
//   - FinishPrepare publishes the previous frame's compute time and
//     records the resolve of this frame's timestamps.
//   - Paint binds the render pipeline and draws six vertices.
//
// The compute dispatch covers floor(size/16) workgroups per axis, so the
// right and bottom partial tiles are not traced.
//
// # Timing
//
// [Timing] is readable from any goroutine. It reports the compute
// duration of the previous frame in milliseconds, or NaN when timestamp
// queries are unavailable or no measurement exists yet.
//
// # Devices
//
// Resources are created on a [gpucore.Device]. The backend/native package
// implements it over gogpu/wgpu HAL, backend/webgpu over wgpu-native, and
// integration/host adapts a gpucontext.DeviceProvider from a host window.
//
// # Logging
//
// rtview is silent by default. Use [SetLogger] to route its logs to a
// slog.Logger.
package rtview
