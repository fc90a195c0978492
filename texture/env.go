package texture

// EnvSphereUV maps a normalized direction vector (x,y,z) to sphere-map
// texture coordinates (u,v) in [0,1], the classic reflection-sphere
// projection used for environment probes: r = sqrt(2(1+z)), u = x/r*0.5
// + 0.5, v = y/r*0.5 + 0.5. poleGuard floors the pole-guard radius so a
// direction pointing straight into the pole (z -> -1) still returns a
// finite, if degenerate, coordinate instead of dividing by zero.
func EnvSphereUV(x, y, z float64) (u, v float64) {
	r := poleGuard(z)
	u = x/r*0.5 + 0.5
	v = y/r*0.5 + 0.5
	return u, v
}
